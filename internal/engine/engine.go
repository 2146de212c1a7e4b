package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/shotignore/internal/compositor"
	"github.com/ivlev/shotignore/internal/debug"
	"github.com/ivlev/shotignore/internal/region"
	"github.com/ivlev/shotignore/internal/source"
	"github.com/ivlev/shotignore/internal/spec"
	"github.com/ivlev/shotignore/internal/system"
)

// Project applies one ignore file to every screenshot of a source.
type Project struct {
	Source   source.Source
	Ignore   *spec.File
	Resolver *region.Resolver
	// Output is a PNG file when the source holds a single screenshot and
	// the path has an extension, otherwise a directory.
	Output   string
	DebugDir string
	Workers  int
	Logger   *slog.Logger
}

// Result describes one processed screenshot.
type Result struct {
	Name   string
	Output string
	Before image.Point
	After  image.Point
	Err    error
}

// Stats summarizes a Run.
type Stats struct {
	Total     time.Duration
	Processed int
	Failed    int
}

// NewProject builds a Project resolving locators through the ignore file's
// static element table.
func NewProject(src source.Source, file *spec.File, output string, workers int) (*Project, error) {
	provider, err := file.Provider()
	if err != nil {
		return nil, err
	}
	return &Project{
		Source:   src,
		Ignore:   file,
		Resolver: region.NewResolver(provider, provider),
		Output:   output,
		Workers:  workers,
		Logger:   slog.Default(),
	}, nil
}

// Run composes every screenshot, at most Workers at a time. A failing
// screenshot does not stop the others; the returned error joins all
// per-screenshot failures.
func (p *Project) Run(ctx context.Context) ([]Result, Stats, error) {
	start := time.Now()
	count := p.Source.Count()
	if count == 0 {
		return nil, Stats{}, fmt.Errorf("source contains no screenshots")
	}

	ignoreSpec, err := p.Ignore.Spec()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("ignore file: %w", err)
	}

	outputs, err := p.outputPaths()
	if err != nil {
		return nil, Stats{}, err
	}

	if count > 1 {
		if err := os.MkdirAll(p.Output, 0755); err != nil {
			return nil, Stats{}, err
		}
	}

	workers := p.Workers
	if workers <= 0 || workers > count {
		workers = count
	}

	results := make([]Result, count)
	var sinks []*debug.FileSink
	var sinksMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			var sink *debug.FileSink
			if p.DebugDir != "" {
				sink = debug.NewFileSink(p.DebugDir, p.Source.Name(i))
				sink.Logger = p.logger()
				sinksMu.Lock()
				sinks = append(sinks, sink)
				sinksMu.Unlock()
			}
			results[i] = p.process(gctx, i, outputs[i], ignoreSpec, sink)
			if results[i].Err != nil {
				p.logger().Error("screenshot failed", "name", results[i].Name, "error", results[i].Err)
			}
			return nil
		})
	}
	_ = g.Wait()
	for _, s := range sinks {
		s.Wait()
	}

	stats := Stats{Total: time.Since(start)}
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			stats.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
			continue
		}
		stats.Processed++
	}
	return results, stats, errors.Join(errs...)
}

func (p *Project) process(ctx context.Context, i int, output string, ignoreSpec region.Spec, sink *debug.FileSink) Result {
	res := Result{Name: p.Source.Name(i), Output: output}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	img, err := p.Source.Load(i)
	if err != nil {
		res.Err = err
		return res
	}
	b := img.Bounds()
	res.Before = image.Pt(b.Dx(), b.Dy())

	var ds compositor.DebugSink
	if sink != nil {
		ds = sink
	}
	c := compositor.New(p.Resolver, ds)
	out, err := c.Compose(ctx, img, ignoreSpec, p.Ignore.ImageSpace(b.Dx(), b.Dy()), p.Ignore.Adjustment())
	if err != nil {
		res.Err = err
		return res
	}
	res.After = image.Pt(out.Bounds().Dx(), out.Bounds().Dy())

	err = writePNG(res.Output, out)
	if owned, ok := out.(*image.NRGBA); ok && out != img {
		system.PutImage(owned)
	}
	if err != nil {
		res.Err = fmt.Errorf("write %s: %w", res.Output, err)
	}
	return res
}

// outputPaths maps every screenshot to its output file before any work
// starts. Screenshots whose names differ only by extension keep that
// extension in the output name ("home_jpg.png"); a name that still
// collides is an error.
func (p *Project) outputPaths() ([]string, error) {
	count := p.Source.Count()
	if count == 1 && filepath.Ext(p.Output) != "" && !isDir(p.Output) {
		return []string{p.Output}, nil
	}

	stems := make(map[string]int, count)
	for i := 0; i < count; i++ {
		stems[stem(p.Source.Name(i))]++
	}

	paths := make([]string, count)
	owners := make(map[string]string, count)
	for i := range paths {
		name := p.Source.Name(i)
		base := stem(name)
		if stems[base] > 1 {
			base += "_" + strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		}
		path := filepath.Join(p.Output, base+".png")
		if prev, taken := owners[path]; taken {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, name, path)
		}
		owners[path] = name
		paths[i] = path
	}
	return paths, nil
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func (p *Project) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
