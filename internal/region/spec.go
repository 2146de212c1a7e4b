package region

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ivlev/shotignore/internal/geometry"
	"github.com/ivlev/shotignore/internal/ignore"
)

// Locator is an abstract reference to zero or more page elements. Type is
// the lookup mechanism ("css", "xpath", ...), Value its argument.
type Locator struct {
	Type  string
	Value string
}

// DefaultLocatorType is assumed for locators written without a "type:" prefix.
const DefaultLocatorType = "css"

var locatorTypes = map[string]bool{
	"css":   true,
	"xpath": true,
	"id":    true,
	"name":  true,
	"text":  true,
	"rect":  true,
}

// ParseLocator parses "type:value". A missing or unknown prefix makes the
// whole string a CSS selector, so "a:hover" stays a valid selector.
func ParseLocator(s string) (Locator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Locator{}, fmt.Errorf("empty locator")
	}
	if typ, value, ok := strings.Cut(s, ":"); ok && locatorTypes[strings.ToLower(typ)] {
		value = strings.TrimSpace(value)
		if value == "" {
			return Locator{}, fmt.Errorf("locator %q has no value", s)
		}
		return Locator{Type: strings.ToLower(typ), Value: value}, nil
	}
	return Locator{Type: DefaultLocatorType, Value: s}, nil
}

func (l Locator) String() string {
	return l.Type + ":" + l.Value
}

// Spec maps each ignore strategy to the locators whose elements it removes.
type Spec map[ignore.Strategy][]Locator

// Empty reports whether the spec names no locator at all.
func (s Spec) Empty() bool {
	for _, locators := range s {
		if len(locators) > 0 {
			return false
		}
	}
	return true
}

// Merge returns the per-strategy union of s and other, keeping first-seen
// order and dropping duplicates. Neither input is modified.
func (s Spec) Merge(other Spec) Spec {
	merged := make(Spec, len(s))
	for _, src := range []Spec{s, other} {
		for strategy, locators := range src {
			for _, l := range locators {
				if !containsLocator(merged[strategy], l) {
					merged[strategy] = append(merged[strategy], l)
				}
			}
		}
	}
	return merged
}

func containsLocator(locators []Locator, l Locator) bool {
	for _, existing := range locators {
		if existing == l {
			return true
		}
	}
	return false
}

// Area returns the rectangle named by a "rect:x,y,w,h" locator, in CSS
// pixels.
func (l Locator) Area() (geometry.Rectangle, error) {
	if l.Type != "rect" {
		return geometry.Rectangle{}, fmt.Errorf("locator %s names no area", l)
	}
	parts := strings.Split(l.Value, ",")
	if len(parts) != 4 {
		return geometry.Rectangle{}, fmt.Errorf("rect locator %q: want x,y,w,h", l.Value)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geometry.Rectangle{}, fmt.Errorf("rect locator %q: %w", l.Value, err)
		}
		v[i] = n
	}
	return geometry.Rect(v[0], v[1], v[2], v[3]), nil
}
