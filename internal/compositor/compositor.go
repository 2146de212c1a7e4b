package compositor

import (
	"context"
	"fmt"
	"image"

	"github.com/ivlev/shotignore/internal/ignore"
	"github.com/ivlev/shotignore/internal/region"
	"github.com/ivlev/shotignore/internal/system"
)

// DebugSink receives intermediate images. Emit must not fail the caller;
// sinks handle and log their own errors. img is only valid during the
// call: a sink that writes asynchronously must copy it first.
type DebugSink interface {
	Emit(tag string, img image.Image)
}

// Compositor removes ignore regions from screenshots before comparison.
// It holds no per-call state and is safe for concurrent use as long as
// its collaborators are.
type Compositor struct {
	Resolver *region.Resolver
	Debug    DebugSink
}

// New creates a Compositor. debug may be nil.
func New(resolver *region.Resolver, debug DebugSink) *Compositor {
	return &Compositor{Resolver: resolver, Debug: debug}
}

// Compose resolves spec and applies Mask, then Excise, to img.
//
// img is never modified. When nothing resolves, img itself is returned.
// Otherwise the result is a new *image.NRGBA with its origin at (0, 0)
// that the caller owns; it may be handed back via system.PutImage once
// no longer needed.
func (c *Compositor) Compose(ctx context.Context, img image.Image, spec region.Spec, space region.ImageSpace, adj region.Adjustment) (image.Image, error) {
	if spec.Empty() {
		return img, nil
	}

	resolved, err := c.Resolver.Resolve(ctx, spec, space, adj)
	if err != nil {
		return nil, fmt.Errorf("resolve ignore regions: %w", err)
	}
	if len(resolved) == 0 {
		return img, nil
	}

	work := system.ToNRGBA(img)
	for _, strategy := range ignore.Order {
		rects, ok := resolved[strategy]
		if !ok {
			continue
		}
		next, err := strategy.Apply(work, rects)
		if err != nil {
			system.PutImage(work)
			return nil, fmt.Errorf("apply %s: %w", strategy, err)
		}
		if next != work {
			system.PutImage(work)
		}
		work = next

		if c.Debug != nil {
			c.Debug.Emit("cropped_by_"+strategy.String(), work)
		}
	}
	return work, nil
}
