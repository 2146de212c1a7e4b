package debug

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ivlev/shotignore/internal/system"
)

// FileSink writes intermediate images as PNG files into Dir. Writes happen
// in the background; failures are logged and never reported to the caller.
type FileSink struct {
	Dir    string
	Prefix string
	Logger *slog.Logger

	seq atomic.Int64
	wg  sync.WaitGroup
	now func() time.Time
}

// NewFileSink creates a sink writing into dir. prefix is prepended to every
// file name (typically the screenshot name).
func NewFileSink(dir, prefix string) *FileSink {
	return &FileSink{
		Dir:    dir,
		Prefix: prefix,
		Logger: slog.Default(),
		now:    time.Now,
	}
}

// Emit snapshots img and schedules it to be written as
// <timestamp>_<prefix>_<seq>_<tag>.png.
func (s *FileSink) Emit(tag string, img image.Image) {
	snapshot := system.ToNRGBA(img)

	path := filepath.Join(s.Dir, s.fileName(tag))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer system.PutImage(snapshot)
		if err := writePNG(path, snapshot); err != nil {
			s.logger().Warn("debug sink: write failed", "path", path, "error", err)
			return
		}
		s.logger().Debug("debug sink: image written", "path", path, "tag", tag)
	}()
}

// Wait blocks until every scheduled write has finished.
func (s *FileSink) Wait() {
	s.wg.Wait()
}

func (s *FileSink) fileName(tag string) string {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	parts := []string{now().Format("2006-01-02_15-04-05.000")}
	if s.Prefix != "" {
		parts = append(parts, sanitize(s.Prefix))
	}
	parts = append(parts, fmt.Sprintf("%03d", s.seq.Add(1)), sanitize(tag))
	return strings.Join(parts, "_") + ".png"
}

func (s *FileSink) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
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

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
