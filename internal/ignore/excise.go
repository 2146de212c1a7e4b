package ignore

import (
	"fmt"
	"image"
	"slices"

	"github.com/ivlev/shotignore/internal/geometry"
	"github.com/ivlev/shotignore/internal/system"
)

// band is a half-open row range [from, to) of the source image.
type band struct {
	from, to int
}

// exciseRegions removes the row bands covered by rects and stacks the
// remaining bands top to bottom. Only Y and H of each rectangle matter;
// every band spans the full image width.
func exciseRegions(img *image.NRGBA, rects []geometry.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	kept, removed, err := planBands(bounds, rects)
	if err != nil {
		return nil, err
	}

	dst := system.GetImage(image.Rect(0, 0, bounds.Dx(), bounds.Dy()-removed))
	rowLen := bounds.Dx() * 4
	dstY := 0
	for _, b := range kept {
		for y := b.from; y < b.to; y++ {
			si := img.PixOffset(bounds.Min.X, y)
			di := dst.PixOffset(0, dstY)
			copy(dst.Pix[di:di+rowLen], img.Pix[si:si+rowLen])
			dstY++
		}
	}
	return dst, nil
}

// planBands clips rects to the image rows, orders them by (Y, X, W, H) and
// returns the source bands that survive along with the total number of
// removed rows.
//
// A rectangle that starts inside a band already removed is pushed down to
// start where that band ended, so every rectangle removes exactly its
// clipped height and rectangles sharing a Y are never collapsed into one.
// Rows outside every rectangle are therefore only guaranteed to survive
// when the rectangles do not overlap.
func planBands(bounds image.Rectangle, rects []geometry.Rectangle) ([]band, int, error) {
	height := bounds.Dy()

	clipped := make([]geometry.Rectangle, 0, len(rects))
	removed := 0
	for _, r := range rects {
		if r.H < 0 {
			return nil, 0, fmt.Errorf("%w: negative height in %v", ErrDegenerateGeometry, r)
		}
		top := max(r.Y, bounds.Min.Y)
		bottom := min(r.Bottom(), bounds.Max.Y)
		if bottom <= top {
			continue
		}
		r.Y, r.H = top, bottom-top
		clipped = append(clipped, r)
		removed += r.H
	}
	if removed >= height {
		return nil, 0, fmt.Errorf("%w: excise would remove %d of %d rows", ErrDegenerateGeometry, removed, height)
	}

	slices.SortStableFunc(clipped, geometry.Compare)

	var kept []band
	cursor := bounds.Min.Y
	for _, r := range clipped {
		start := max(r.Y, cursor)
		end := start + r.H
		if end > bounds.Max.Y {
			return nil, 0, fmt.Errorf("%w: overlapping bands push %v below the image (rows %d..%d of %d)",
				ErrDegenerateGeometry, r, start, end, bounds.Max.Y)
		}
		if start > cursor {
			kept = append(kept, band{from: cursor, to: start})
		}
		cursor = end
	}
	if cursor < bounds.Max.Y {
		kept = append(kept, band{from: cursor, to: bounds.Max.Y})
	}
	return kept, removed, nil
}
