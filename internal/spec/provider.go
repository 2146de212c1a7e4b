package spec

import (
	"context"
	"fmt"

	"github.com/ivlev/shotignore/internal/geometry"
	"github.com/ivlev/shotignore/internal/region"
)

// StaticProvider serves element rectangles recorded in an ignore file. It
// implements both region.ElementFinder and region.CoordsProvider; each
// element handle is a geometry.Rectangle in CSS pixels.
//
// Locators of type "rect" ("rect:x,y,w,h") describe an area directly and
// need no entry in Elements.
type StaticProvider struct {
	elements map[region.Locator][]geometry.Rectangle
}

// NewStaticProvider indexes elements by parsed locator.
func NewStaticProvider(elements map[string][]geometry.Rectangle) (*StaticProvider, error) {
	p := &StaticProvider{elements: make(map[region.Locator][]geometry.Rectangle, len(elements))}
	for raw, rects := range elements {
		l, err := region.ParseLocator(raw)
		if err != nil {
			return nil, fmt.Errorf("elements: %w", err)
		}
		p.elements[l] = append(p.elements[l], rects...)
	}
	return p, nil
}

// Provider builds a StaticProvider from the file's elements section.
func (f *File) Provider() (*StaticProvider, error) {
	return NewStaticProvider(f.Elements)
}

func (p *StaticProvider) FindElements(_ context.Context, l region.Locator) ([]region.Element, error) {
	if l.Type == "rect" {
		r, err := l.Area()
		if err != nil {
			return nil, err
		}
		return []region.Element{r}, nil
	}

	rects := p.elements[l]
	out := make([]region.Element, 0, len(rects))
	for _, r := range rects {
		out = append(out, r)
	}
	return out, nil
}

func (p *StaticProvider) RectanglesOf(_ context.Context, elements []region.Element, space region.ImageSpace) ([]geometry.Rectangle, error) {
	out := make([]geometry.Rectangle, 0, len(elements))
	for _, e := range elements {
		r, ok := e.(geometry.Rectangle)
		if !ok {
			return nil, fmt.Errorf("static provider: unexpected element %T", e)
		}
		out = append(out, geometry.Scale(r, space.DevicePixelRatio))
	}
	return out, nil
}
