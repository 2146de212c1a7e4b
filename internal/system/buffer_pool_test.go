package system

import (
	"image"
	"image/color"
	"sync"
	"testing"
)

func TestGetImageReturnsZeroOriginBuffer(t *testing.T) {
	img := GetImage(image.Rect(5, 5, 22, 14))
	want := image.Rect(0, 0, 17, 9)
	if img.Bounds() != want {
		t.Fatalf("expected bounds %v, got %v", want, img.Bounds())
	}
	if len(img.Pix) != 17*9*4 {
		t.Errorf("expected %d bytes, got %d", 17*9*4, len(img.Pix))
	}
	PutImage(img)

	again := GetImage(want)
	if again.Bounds() != want {
		t.Errorf("expected bounds %v after reuse, got %v", want, again.Bounds())
	}
}

func TestPutImageDropsForeignBuffers(t *testing.T) {
	p := &bufferPool{sizes: make(map[image.Point]*sync.Pool)}
	p.put(image.NewNRGBA(image.Rect(0, 0, 3, 3)))
	p.put(nil)
	if len(p.sizes) != 0 {
		t.Errorf("expected put to create no pools, got %d", len(p.sizes))
	}

	p.get(image.Pt(4, 4))
	sub := image.NewNRGBA(image.Rect(0, 0, 8, 8)).SubImage(image.Rect(0, 0, 4, 4)).(*image.NRGBA)
	p.put(sub)
	if got := p.get(image.Pt(4, 4)); got == sub {
		t.Error("expected a sub-image never to be recycled")
	}
}

func TestCloneNRGBAKeepsEveryChannel(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	src.SetNRGBA(3, 4, color.NRGBA{R: 201, G: 3, B: 77, A: 9})
	src.SetNRGBA(2, 2, color.NRGBA{R: 90, G: 80, B: 70, A: 0})
	sub := src.SubImage(image.Rect(2, 2, 5, 6)).(*image.NRGBA)

	got := CloneNRGBA(sub)
	if got.Bounds() != image.Rect(0, 0, 3, 4) {
		t.Fatalf("unexpected bounds %v", got.Bounds())
	}
	if c := got.NRGBAAt(1, 2); c != (color.NRGBA{R: 201, G: 3, B: 77, A: 9}) {
		t.Errorf("semi-transparent pixel changed: %v", c)
	}
	if c := got.NRGBAAt(0, 0); c != (color.NRGBA{R: 90, G: 80, B: 70, A: 0}) {
		t.Errorf("transparent pixel lost its color: %v", c)
	}
}
