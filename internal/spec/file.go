package spec

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/shotignore/internal/geometry"
	"github.com/ivlev/shotignore/internal/ignore"
	"github.com/ivlev/shotignore/internal/region"
)

// CurrentVersion is written by WriteFile when the version is unset.
const CurrentVersion = "1.0"

// File is the YAML form of an ignore request for one or more screenshots.
type File struct {
	Version string `yaml:"version"`
	// Rows already cut from the top of the screenshot by the capture step.
	TrimmedTop int `yaml:"trimmed_top,omitempty"`
	// Scale from element (CSS) pixels to screenshot pixels. 0 means 1.
	DevicePixelRatio float64 `yaml:"device_pixel_ratio,omitempty"`
	// Scoped search region in screenshot pixels; absent for the whole page.
	Scope *geometry.Rectangle `yaml:"scope,omitempty"`
	// Strategy name -> locators.
	Ignore map[string][]string `yaml:"ignore"`
	// Locator -> element rectangles in CSS pixels, used by StaticProvider.
	Elements map[string][]geometry.Rectangle `yaml:"elements,omitempty"`
}

// ReadFile reads an ignore file from disk.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses an ignore file.
func Decode(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ignore file: %w", err)
	}
	return &f, nil
}

// WriteFile writes f as YAML to path.
func WriteFile(f *File, path string) error {
	if f.Version == "" {
		f.Version = CurrentVersion
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Spec converts the ignore section, validating strategy names and locators.
func (f *File) Spec() (region.Spec, error) {
	names := make([]string, 0, len(f.Ignore))
	for name := range f.Ignore {
		names = append(names, name)
	}
	sort.Strings(names)

	var s region.Spec
	for _, name := range names {
		strategy, err := ignore.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		for _, raw := range f.Ignore[name] {
			l, err := region.ParseLocator(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			s = s.Merge(region.Spec{strategy: {l}})
		}
	}
	return s, nil
}

// Adjustment derives the rectangle shift from the scope and trimmed rows.
func (f *File) Adjustment() region.Adjustment {
	return region.NewAdjustment(f.Scope, f.TrimmedTop)
}

// ImageSpace describes a screenshot of the given size under this file.
func (f *File) ImageSpace(width, height int) region.ImageSpace {
	dpr := f.DevicePixelRatio
	if dpr <= 0 {
		dpr = 1
	}
	return region.ImageSpace{Width: width, Height: height, DevicePixelRatio: dpr}
}
