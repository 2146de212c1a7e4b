package geometry

import (
	"cmp"
	"fmt"
	"image"
	"math"
)

// Rectangle is an axis-aligned box in the pixel space of one specific image.
type Rectangle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Rect is shorthand for Rectangle{X: x, Y: y, W: w, H: h}.
func Rect(x, y, w, h int) Rectangle {
	return Rectangle{X: x, Y: y, W: w, H: h}
}

// FromImage converts an image.Rectangle (min/max corners) into a Rectangle.
func FromImage(r image.Rectangle) Rectangle {
	return Rectangle{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Right returns the exclusive right edge.
func (r Rectangle) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge.
func (r Rectangle) Bottom() int { return r.Y + r.H }

// Empty reports whether the rectangle covers no pixels. Results of
// Intersect on disjoint rectangles are empty.
func (r Rectangle) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Image converts r into an image.Rectangle. An empty r yields image.ZR.
func (r Rectangle) Image() image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

func (r Rectangle) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

// Intersect returns the overlap of a and b. Disjoint inputs produce a
// rectangle with zero or negative width or height; callers check Empty.
func Intersect(a, b Rectangle) Rectangle {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.Right(), b.Right())
	y2 := min(a.Bottom(), b.Bottom())
	return Rectangle{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Translate shifts r by (dx, dy). Size is unchanged.
func Translate(r Rectangle, dx, dy int) Rectangle {
	return Rectangle{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Scale multiplies r by factor, rounding outwards so the result covers
// every pixel the scaled box touches. A factor of 0 or 1 returns r.
func Scale(r Rectangle, factor float64) Rectangle {
	if factor <= 0 || factor == 1 {
		return r
	}
	return FromFloat(float64(r.X)*factor, float64(r.Y)*factor, float64(r.W)*factor, float64(r.H)*factor)
}

// FromFloat converts a fractional box into the smallest pixel rectangle
// covering it.
func FromFloat(x, y, w, h float64) Rectangle {
	x1 := int(math.Floor(x))
	y1 := int(math.Floor(y))
	x2 := int(math.Ceil(x + w))
	y2 := int(math.Ceil(y + h))
	return Rectangle{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Compare orders rectangles by (Y, X, W, H). It is a total order: it
// returns 0 only when all four fields match.
func Compare(a, b Rectangle) int {
	switch {
	case a.Y != b.Y:
		return cmp.Compare(a.Y, b.Y)
	case a.X != b.X:
		return cmp.Compare(a.X, b.X)
	case a.W != b.W:
		return cmp.Compare(a.W, b.W)
	default:
		return cmp.Compare(a.H, b.H)
	}
}

// Less reports whether a sorts before b under Compare.
func Less(a, b Rectangle) bool {
	return Compare(a, b) < 0
}
