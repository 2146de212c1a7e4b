package system

import (
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// bufferPool recycles NRGBA buffers keyed by pixel size. Screenshots of one
// run usually share dimensions, so the same few sizes come back repeatedly.
type bufferPool struct {
	mu    sync.Mutex
	sizes map[image.Point]*sync.Pool
}

var buffers = &bufferPool{sizes: make(map[image.Point]*sync.Pool)}

// GetImage returns a zero-origin NRGBA buffer with r's size. A recycled
// buffer still holds its previous owner's pixels; callers overwrite every
// row they read back.
func GetImage(r image.Rectangle) *image.NRGBA {
	return buffers.get(r.Size())
}

// PutImage hands img back for reuse. Sub-images and sizes never requested
// through GetImage are dropped.
func PutImage(img *image.NRGBA) {
	buffers.put(img)
}

// CloneNRGBA copies src byte for byte into a pooled zero-origin buffer.
func CloneNRGBA(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := GetImage(b)
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], src.Pix[si:si+rowLen])
	}
	return dst
}

// ToNRGBA copies img into a pooled zero-origin buffer. NRGBA input keeps
// every channel exactly; other models are converted.
func ToNRGBA(img image.Image) *image.NRGBA {
	if src, ok := img.(*image.NRGBA); ok {
		return CloneNRGBA(src)
	}
	b := img.Bounds()
	dst := GetImage(b)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func (p *bufferPool) get(size image.Point) *image.NRGBA {
	if img, ok := p.pool(size, true).Get().(*image.NRGBA); ok {
		return img
	}
	return image.NewNRGBA(image.Rectangle{Max: size})
}

func (p *bufferPool) put(img *image.NRGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) || img.Stride != img.Rect.Dx()*4 {
		return
	}
	if pool := p.pool(img.Rect.Size(), false); pool != nil {
		pool.Put(img)
	}
}

func (p *bufferPool) pool(size image.Point, create bool) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	pool, ok := p.sizes[size]
	if !ok && create {
		pool = &sync.Pool{}
		p.sizes[size] = pool
	}
	return pool
}
