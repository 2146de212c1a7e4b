package ignore

import (
	"image"

	"github.com/ivlev/shotignore/internal/geometry"
)

// maskRegions clears every pixel inside rects to transparent black.
// Rectangles are clipped to the image bounds.
func maskRegions(img *image.NRGBA, rects []geometry.Rectangle) {
	bounds := img.Bounds()
	for _, r := range rects {
		area := r.Image().Intersect(bounds)
		if area.Empty() {
			continue
		}
		rowLen := area.Dx() * 4
		for y := area.Min.Y; y < area.Max.Y; y++ {
			i := img.PixOffset(area.Min.X, y)
			clear(img.Pix[i : i+rowLen])
		}
	}
}
