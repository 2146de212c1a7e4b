package system

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFindLatestImage(t *testing.T) {
	dir := t.TempDir()
	files := []string{"old.png", "newest.webp", "middle.jpg", "ignored.txt"}
	base := time.Now().Add(-time.Hour)
	mod := map[string]time.Duration{"old.png": 0, "middle.jpg": 10 * time.Minute, "newest.webp": 20 * time.Minute, "ignored.txt": 30 * time.Minute}

	for _, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		ts := base.Add(mod[name])
		if err := os.Chtimes(path, ts, ts); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := FindLatestImage(dir)
	if err != nil {
		t.Fatalf("FindLatestImage failed: %v", err)
	}
	if filepath.Base(latest) != "newest.webp" {
		t.Errorf("expected newest.webp, got %s", latest)
	}

	fromFile, err := FindLatestImage(filepath.Join(dir, "old.png"))
	if err != nil {
		t.Fatalf("FindLatestImage on a file failed: %v", err)
	}
	if fromFile != latest {
		t.Errorf("expected %s when searching next to a file, got %s", latest, fromFile)
	}
}

func TestFindLatestImageEmptyDir(t *testing.T) {
	if _, err := FindLatestImage(t.TempDir()); err == nil {
		t.Error("expected error for a directory without screenshots")
	}
}

func TestMemoryReport(t *testing.T) {
	report := MemoryReport()
	if report == "" {
		t.Fatal("expected a non-empty memory report")
	}
	if !strings.Contains(report, "MiB") && !strings.HasPrefix(report, "unavailable") {
		t.Errorf("unexpected report format: %s", report)
	}
}

func TestRaiseOpenFileLimitNeverLowers(t *testing.T) {
	got, err := RaiseOpenFileLimit(1)
	if err != nil {
		t.Fatalf("RaiseOpenFileLimit failed: %v", err)
	}
	if got < 1 {
		t.Errorf("expected the current soft limit to be kept, got %d", got)
	}

	again, err := RaiseOpenFileLimit(got)
	if err != nil {
		t.Fatalf("RaiseOpenFileLimit failed: %v", err)
	}
	if again != got {
		t.Errorf("expected %d to stay unchanged, got %d", got, again)
	}
}
