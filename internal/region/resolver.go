package region

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ivlev/shotignore/internal/geometry"
	"github.com/ivlev/shotignore/internal/ignore"
)

// Element is an opaque handle produced by an ElementFinder and understood
// by the matching CoordsProvider.
type Element any

// ElementFinder looks elements up by locator. Finding nothing is not an
// error: implementations return an empty slice.
type ElementFinder interface {
	FindElements(ctx context.Context, locator Locator) ([]Element, error)
}

// CoordsProvider reports the pixel rectangles of elements in the given
// image space. It owns any device-pixel scaling; zero elements yield zero
// rectangles.
type CoordsProvider interface {
	RectanglesOf(ctx context.Context, elements []Element, space ImageSpace) ([]geometry.Rectangle, error)
}

// ImageSpace describes the composited screenshot the rectangles must be
// expressed in.
type ImageSpace struct {
	Width            int
	Height           int
	DevicePixelRatio float64
}

// Adjustment is a uniform shift applied to every resolved rectangle.
type Adjustment struct {
	DX int
	DY int
}

// NewAdjustment derives the shift for a screenshot scoped to scope (nil for
// the whole page) whose first trimmedTop rows were already cut off.
func NewAdjustment(scope *geometry.Rectangle, trimmedTop int) Adjustment {
	adj := Adjustment{DY: -trimmedTop}
	if scope != nil {
		adj.DX -= scope.X
		adj.DY -= scope.Y
	}
	return adj
}

// Resolved holds the rectangles to apply per strategy, already in the
// target image's coordinate space. Strategies with nothing to apply are
// absent.
type Resolved map[ignore.Strategy][]geometry.Rectangle

// Resolver turns an ignore Spec into rectangles via the two collaborators.
type Resolver struct {
	Finder ElementFinder
	Coords CoordsProvider
	Logger *slog.Logger
}

// NewResolver creates a Resolver logging to slog.Default().
func NewResolver(finder ElementFinder, coords CoordsProvider) *Resolver {
	return &Resolver{
		Finder: finder,
		Coords: coords,
		Logger: slog.Default(),
	}
}

// Resolve looks up every locator of spec, shifts the rectangles by adj and
// unions them per strategy. Identical rectangles collapse into one; empty
// ones are dropped. Each strategy's rectangles come back ordered by
// (Y, X, W, H).
func (r *Resolver) Resolve(ctx context.Context, spec Spec, space ImageSpace, adj Adjustment) (Resolved, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolved := make(Resolved)
	for _, strategy := range ignore.Order {
		seen := make(map[geometry.Rectangle]struct{})
		var rects []geometry.Rectangle

		for _, locator := range spec[strategy] {
			elements, err := r.Finder.FindElements(ctx, locator)
			if err != nil {
				return nil, fmt.Errorf("find elements %s: %w", locator, err)
			}
			if len(elements) == 0 {
				logger.Debug("ignore locator matched no elements", "strategy", strategy, "locator", locator.String())
				continue
			}

			found, err := r.Coords.RectanglesOf(ctx, elements, space)
			if err != nil {
				return nil, fmt.Errorf("coordinates of %s: %w", locator, err)
			}
			for _, rect := range found {
				rect = geometry.Translate(rect, adj.DX, adj.DY)
				if rect.Empty() {
					continue
				}
				if _, dup := seen[rect]; dup {
					continue
				}
				seen[rect] = struct{}{}
				rects = append(rects, rect)
			}
		}

		if len(rects) == 0 {
			continue
		}
		slices.SortFunc(rects, geometry.Compare)
		resolved[strategy] = rects
	}
	return resolved, nil
}
