package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-rod/rod"

	"github.com/ivlev/shotignore/internal/geometry"
	"github.com/ivlev/shotignore/internal/region"
)

// documentBoxJS returns the element's border box in document CSS pixels.
const documentBoxJS = `() => {
	const r = this.getBoundingClientRect();
	return {x: r.left + window.scrollX, y: r.top + window.scrollY, w: r.width, h: r.height};
}`

// Page adapts a Rod page to region.ElementFinder and region.CoordsProvider.
// Element handles are *rod.Element.
type Page struct {
	Page   *rod.Page
	Logger *slog.Logger
}

// NewPage wraps page.
func NewPage(page *rod.Page) *Page {
	return &Page{Page: page, Logger: slog.Default()}
}

// FindElements queries the page. No match yields an empty slice.
// A "rect" locator yields its area as a geometry.Rectangle without touching
// the page.
func (p *Page) FindElements(ctx context.Context, l region.Locator) ([]region.Element, error) {
	if l.Type == "rect" {
		r, err := l.Area()
		if err != nil {
			return nil, err
		}
		return []region.Element{r}, nil
	}

	page := p.Page.Context(ctx)
	var (
		found rod.Elements
		err   error
	)
	switch l.Type {
	case "xpath":
		found, err = page.ElementsX(l.Value)
	case "text":
		found, err = page.ElementsX(textXPath(l.Value))
	default:
		sel, serr := cssSelector(l)
		if serr != nil {
			return nil, serr
		}
		found, err = page.Elements(sel)
	}
	if err != nil {
		return nil, fmt.Errorf("browser: find %s: %w", l, err)
	}

	out := make([]region.Element, 0, len(found))
	for _, el := range found {
		out = append(out, el)
	}
	return out, nil
}

// RectanglesOf measures every element in document pixels and scales the
// boxes into screenshot pixels. Invisible elements (zero-size boxes) are
// skipped. Areas from "rect" locators are scaled as they are.
func (p *Page) RectanglesOf(ctx context.Context, elements []region.Element, space region.ImageSpace) ([]geometry.Rectangle, error) {
	out := make([]geometry.Rectangle, 0, len(elements))
	for _, e := range elements {
		var r geometry.Rectangle
		switch el := e.(type) {
		case *rod.Element:
			box, err := documentBox(ctx, el)
			if err != nil {
				return nil, err
			}
			r = box
		case geometry.Rectangle:
			r = el
		default:
			return nil, fmt.Errorf("browser: unexpected element %T", e)
		}
		if r.Empty() {
			p.logger().Debug("browser: skipping zero-size element")
			continue
		}
		out = append(out, geometry.Scale(r, space.DevicePixelRatio))
	}
	return out, nil
}

// ElementCoords returns the element's box relative to scope, or in
// document pixels when scope is nil.
func (p *Page) ElementCoords(ctx context.Context, el *rod.Element, scope *geometry.Rectangle) (geometry.Rectangle, error) {
	r, err := documentBox(ctx, el)
	if err != nil {
		return geometry.Rectangle{}, err
	}
	return geometry.AdjustToScope(r, scope), nil
}

func (p *Page) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func documentBox(ctx context.Context, el *rod.Element) (geometry.Rectangle, error) {
	res, err := el.Context(ctx).Eval(documentBoxJS)
	if err != nil {
		return geometry.Rectangle{}, fmt.Errorf("browser: measure element: %w", err)
	}
	v := res.Value
	return geometry.FromFloat(v.Get("x").Num(), v.Get("y").Num(), v.Get("w").Num(), v.Get("h").Num()), nil
}

func cssSelector(l region.Locator) (string, error) {
	switch l.Type {
	case "css", "":
		return l.Value, nil
	case "id":
		return "[id=" + strconv.Quote(l.Value) + "]", nil
	case "name":
		return "[name=" + strconv.Quote(l.Value) + "]", nil
	default:
		return "", fmt.Errorf("browser: unsupported locator type %q", l.Type)
	}
}

func textXPath(text string) string {
	return "//*[normalize-space(text())=" + xpathLiteral(text) + "]"
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	hasSingle := false
	hasDouble := false
	for _, r := range s {
		switch r {
		case '\'':
			hasSingle = true
		case '"':
			hasDouble = true
		}
	}
	switch {
	case !hasSingle:
		return "'" + s + "'"
	case !hasDouble:
		return `"` + s + `"`
	}
	out := "concat("
	start := 0
	for i, r := range s {
		if r == '\'' {
			if i > start {
				out += "'" + s[start:i] + "',"
			}
			out += `"'",`
			start = i + 1
		}
	}
	if start < len(s) {
		out += "'" + s[start:] + "',"
	}
	return out[:len(out)-1] + ")"
}
