package ignore

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ivlev/shotignore/internal/geometry"
)

// ErrDegenerateGeometry is wrapped by every error caused by rectangles that
// cannot be applied to the image (e.g. excising all of its rows).
var ErrDegenerateGeometry = errors.New("degenerate ignore geometry")

// Strategy selects how ignore regions are removed from a screenshot.
type Strategy int

const (
	// Mask makes the regions fully transparent, keeping the image size.
	Mask Strategy = iota
	// Excise cuts the row bands covered by the regions and closes the gaps.
	Excise
)

// Order is the fixed application order. Mask runs first because Excise
// changes the coordinate space of every row below a removed band.
var Order = []Strategy{Mask, Excise}

func (s Strategy) String() string {
	switch s {
	case Mask:
		return "mask"
	case Excise:
		return "excise"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy resolves a strategy by name. "element" and "area" are
// accepted as aliases used by older ignore files.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mask", "element":
		return Mask, nil
	case "excise", "area":
		return Excise, nil
	default:
		return 0, fmt.Errorf("unknown ignore strategy: %q", name)
	}
}

// Apply runs the strategy over img. Rectangles are in img's own coordinate
// space. Apply takes ownership of img: Mask paints it in place and returns
// it, Excise returns a new, shorter buffer. Geometry is validated before
// any pixel is touched, so on error img is unchanged.
func (s Strategy) Apply(img *image.NRGBA, rects []geometry.Rectangle) (*image.NRGBA, error) {
	if len(rects) == 0 {
		return img, nil
	}
	switch s {
	case Mask:
		maskRegions(img, rects)
		return img, nil
	case Excise:
		return exciseRegions(img, rects)
	default:
		return nil, fmt.Errorf("unknown ignore strategy: %v", s)
	}
}
