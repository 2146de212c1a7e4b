package compositor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/shotignore/internal/geometry"
	"github.com/ivlev/shotignore/internal/ignore"
	"github.com/ivlev/shotignore/internal/region"
)

// stubPage resolves each locator to fixed rectangles.
type stubPage map[string][]geometry.Rectangle

func (p stubPage) FindElements(_ context.Context, l region.Locator) ([]region.Element, error) {
	var out []region.Element
	for _, r := range p[l.String()] {
		out = append(out, r)
	}
	return out, nil
}

func (p stubPage) RectanglesOf(_ context.Context, elements []region.Element, _ region.ImageSpace) ([]geometry.Rectangle, error) {
	var out []geometry.Rectangle
	for _, e := range elements {
		out = append(out, e.(geometry.Rectangle))
	}
	return out, nil
}

type emitted struct {
	tag    string
	bounds image.Rectangle
}

type recordingSink struct {
	calls []emitted
}

func (s *recordingSink) Emit(tag string, img image.Image) {
	s.calls = append(s.calls, emitted{tag: tag, bounds: img.Bounds()})
}

func screenshot(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(y), G: uint8(y >> 8), B: uint8(x), A: 255})
		}
	}
	return img
}

func locators(t *testing.T, in ...string) []region.Locator {
	t.Helper()
	var out []region.Locator
	for _, s := range in {
		l, err := region.ParseLocator(s)
		require.NoError(t, err)
		out = append(out, l)
	}
	return out
}

func rowOf(img *image.NRGBA, y int) []byte {
	i := img.PixOffset(img.Rect.Min.X, y)
	return img.Pix[i : i+img.Rect.Dx()*4]
}

func TestComposeMaskThenExcise(t *testing.T) {
	page := stubPage{
		"css:img":      {geometry.Rect(704, 89, 272, 201)},
		"xpath://form": {geometry.Rect(270, 311, 1139, 52)},
	}
	spec := region.Spec{
		ignore.Mask:   locators(t, "img"),
		ignore.Excise: locators(t, "xpath://form"),
	}
	src := screenshot(1139, 600)
	orig := bytes.Clone(src.Pix)
	sink := &recordingSink{}

	c := New(region.NewResolver(page, page), sink)
	out, err := c.Compose(context.Background(), src, spec, region.ImageSpace{Width: 1139, Height: 600}, region.Adjustment{})
	require.NoError(t, err)

	got, ok := out.(*image.NRGBA)
	require.True(t, ok)
	require.Equal(t, image.Rect(0, 0, 1139, 548), got.Bounds())

	for y := 89; y < 290; y++ {
		for x := 704; x < 976; x++ {
			outY := y
			if y >= 311 {
				outY = y - 52
			}
			require.Equal(t, uint8(0), got.NRGBAAt(x, outY).A, "pixel (%d,%d)", x, y)
		}
	}
	assert.Equal(t, uint8(255), got.NRGBAAt(703, 89).A)
	assert.Equal(t, uint8(255), got.NRGBAAt(976, 89).A)
	assert.Equal(t, uint8(255), got.NRGBAAt(704, 290).A)

	assert.Equal(t, rowOf(src, 310), rowOf(got, 310))
	assert.Equal(t, rowOf(src, 363), rowOf(got, 311))
	assert.Equal(t, rowOf(src, 599), rowOf(got, 547))

	assert.Equal(t, orig, src.Pix, "input image must not be modified")
	assert.Equal(t, []emitted{
		{tag: "cropped_by_mask", bounds: image.Rect(0, 0, 1139, 600)},
		{tag: "cropped_by_excise", bounds: image.Rect(0, 0, 1139, 548)},
	}, sink.calls)
}

func TestComposeEmptySpecIsNoop(t *testing.T) {
	src := screenshot(30, 20)
	orig := bytes.Clone(src.Pix)
	sink := &recordingSink{}
	page := stubPage{}

	c := New(region.NewResolver(page, page), sink)
	out, err := c.Compose(context.Background(), src, region.Spec{}, region.ImageSpace{}, region.Adjustment{})
	require.NoError(t, err)

	assert.Same(t, src, out)
	assert.Equal(t, orig, src.Pix)
	assert.Empty(t, sink.calls)
}

func TestComposeSkipsUnresolvedStrategies(t *testing.T) {
	page := stubPage{"css:.ad": {geometry.Rect(0, 10, 30, 5)}}
	spec := region.Spec{
		ignore.Mask:   locators(t, "#gone"),
		ignore.Excise: locators(t, ".ad"),
	}
	sink := &recordingSink{}

	c := New(region.NewResolver(page, page), sink)
	out, err := c.Compose(context.Background(), screenshot(30, 40), spec, region.ImageSpace{}, region.Adjustment{})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 30, 35), out.Bounds())
	assert.Equal(t, []emitted{{tag: "cropped_by_excise", bounds: image.Rect(0, 0, 30, 35)}}, sink.calls)
}

func TestComposeReturnsInputWhenNothingResolves(t *testing.T) {
	src := screenshot(10, 10)
	sink := &recordingSink{}
	page := stubPage{}
	spec := region.Spec{ignore.Mask: locators(t, "#gone"), ignore.Excise: locators(t, "#gone")}

	c := New(region.NewResolver(page, page), sink)
	out, err := c.Compose(context.Background(), src, spec, region.ImageSpace{}, region.Adjustment{})
	require.NoError(t, err)
	assert.Same(t, src, out)
	assert.Empty(t, sink.calls)
}

func TestComposeAppliesAdjustment(t *testing.T) {
	page := stubPage{"css:header": {geometry.Rect(0, 100, 20, 10)}}
	spec := region.Spec{ignore.Excise: locators(t, "header")}
	src := screenshot(20, 60)

	c := New(region.NewResolver(page, page), nil)
	out, err := c.Compose(context.Background(), src, spec, region.ImageSpace{}, region.NewAdjustment(nil, 80))
	require.NoError(t, err)

	got := out.(*image.NRGBA)
	require.Equal(t, 50, got.Bounds().Dy())
	assert.Equal(t, rowOf(src, 19), rowOf(got, 19))
	assert.Equal(t, rowOf(src, 30), rowOf(got, 20))
}

func TestComposeSurfacesDegenerateGeometry(t *testing.T) {
	page := stubPage{
		"css:a":    {geometry.Rect(0, 0, 5, 5)},
		"css:page": {geometry.Rect(0, 0, 10, 10)},
	}
	spec := region.Spec{ignore.Mask: locators(t, "a"), ignore.Excise: locators(t, "page")}
	src := screenshot(10, 10)
	orig := bytes.Clone(src.Pix)
	sink := &recordingSink{}

	c := New(region.NewResolver(page, page), sink)
	out, err := c.Compose(context.Background(), src, spec, region.ImageSpace{}, region.Adjustment{})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ignore.ErrDegenerateGeometry))
	assert.Equal(t, orig, src.Pix)
	assert.Equal(t, []emitted{{tag: "cropped_by_mask", bounds: image.Rect(0, 0, 10, 10)}}, sink.calls)
}

func TestComposeNormalizesOriginAndFormat(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			base.SetRGBA(x, y, color.RGBA{R: uint8(10 * y), G: uint8(10 * x), B: 7, A: 255})
		}
	}
	sub := base.SubImage(image.Rect(2, 2, 8, 8))
	page := stubPage{"css:x": {geometry.Rect(0, 0, 1, 1)}}
	spec := region.Spec{ignore.Mask: locators(t, "x")}

	c := New(region.NewResolver(page, page), nil)
	out, err := c.Compose(context.Background(), sub, spec, region.ImageSpace{}, region.Adjustment{})
	require.NoError(t, err)

	got := out.(*image.NRGBA)
	require.Equal(t, image.Rect(0, 0, 6, 6), got.Bounds())
	assert.Equal(t, color.NRGBA{}, got.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 20, G: 30, B: 7, A: 255}, got.NRGBAAt(1, 0))
}
