package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/shotignore/internal/browser"
	"github.com/ivlev/shotignore/internal/config"
	"github.com/ivlev/shotignore/internal/engine"
	"github.com/ivlev/shotignore/internal/region"
	"github.com/ivlev/shotignore/internal/source"
	"github.com/ivlev/shotignore/internal/spec"
	"github.com/ivlev/shotignore/internal/system"
)

var buildVersion = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if limit, err := system.RaiseOpenFileLimit(2048); err != nil {
		log.Printf("[!] %v", err)
	} else {
		fmt.Printf("[*] Open file limit: %d\n", limit)
	}

	defaults := config.Defaults()

	inputPtr := flag.String("input", "", "Screenshot or directory of screenshots (default: newest image in input/)")
	ignorePtr := flag.String("ignore", defaults.IgnorePath, "YAML ignore file: strategies, locators and element rectangles")
	outputPtr := flag.String("output", defaults.OutputPath, "Output PNG (single screenshot) or directory")
	debugPtr := flag.String("debug-dir", defaults.DebugDir, "Directory for intermediate images (empty: disabled)")
	urlPtr := flag.String("url", "", "Page to locate ignored elements on (default: rectangles recorded in the ignore file)")
	remotePtr := flag.String("remote", defaults.RemoteURL, "DevTools websocket of a running browser (empty: launch headless Chrome)")
	workersPtr := flag.Int("workers", defaults.Workers, "Screenshots processed in parallel")
	statsPtr := flag.Bool("stats", false, "Print a performance report and append it to benchmark.log")

	flag.Parse()

	cfg := &config.Config{
		InputPath:    *inputPtr,
		IgnorePath:   *ignorePtr,
		OutputPath:   *outputPtr,
		DebugDir:     *debugPtr,
		PageURL:      *urlPtr,
		RemoteURL:    *remotePtr,
		Workers:      *workersPtr,
		ShowStats:    *statsPtr,
		BuildVersion: buildVersion,
	}

	if cfg.InputPath == "" {
		latest, err := system.FindLatestImage("input")
		if err != nil {
			log.Fatalf("[-] Error: %v. Put screenshots into input/", err)
		}
		cfg.InputPath = latest
		fmt.Printf("[*] Selected screenshot: %s\n", cfg.InputPath)
	}

	ignoreFile, err := spec.ReadFile(cfg.IgnorePath)
	if err != nil {
		log.Fatalf("[-] Could not read ignore file: %v", err)
	}

	src, err := source.NewImageSource(cfg.InputPath)
	if err != nil {
		log.Fatalf("[-] Could not open screenshots: %v", err)
	}

	project, err := engine.NewProject(src, ignoreFile, cfg.OutputPath, cfg.Workers)
	if err != nil {
		log.Fatalf("[-] Invalid ignore file: %v", err)
	}
	project.DebugDir = cfg.DebugDir

	ctx := context.Background()
	if cfg.PageURL != "" {
		session, err := browser.Open(ctx, cfg.RemoteURL, cfg.PageURL, slog.Default())
		if err != nil {
			log.Fatalf("[-] Could not open %s: %v", cfg.PageURL, err)
		}
		defer session.Close()

		reportAnchors(ctx, session.Page, ignoreFile)
		project.Resolver = region.NewResolver(session.Page, session.Page)
		fmt.Printf("[*] Locating elements on %s\n", cfg.PageURL)
	}

	fmt.Println("--- [SHOTIGNORE] ---")
	fmt.Printf("[*] Input: %s | Screenshots: %d | Workers: %d\n", cfg.InputPath, src.Count(), cfg.Workers)
	fmt.Printf("[*] Ignore file: %s\n", cfg.IgnorePath)
	fmt.Println("--------------------")

	results, stats, runErr := project.Run(ctx)
	for _, r := range results {
		if r.Err != nil {
			log.Printf("[!] %s: %v", r.Name, r.Err)
			continue
		}
		fmt.Printf("[>] %s: %dx%d -> %dx%d (%s)\n", r.Name, r.Before.X, r.Before.Y, r.After.X, r.After.Y, r.Output)
	}

	if cfg.ShowStats {
		printStats(cfg, stats)
	}

	if runErr != nil {
		if stats.Failed == 0 {
			fmt.Printf("[-] %v\n", runErr)
		} else {
			fmt.Printf("[-] %d of %d screenshots failed\n", stats.Failed, src.Count())
		}
		return 1
	}
	fmt.Printf("[+++] Done! Results: %s\n", cfg.OutputPath)
	return 0
}

// reportAnchors prints where each ignored element sits relative to the
// ignore file's scope.
func reportAnchors(ctx context.Context, page *browser.Page, file *spec.File) {
	ignoreSpec, err := file.Spec()
	if err != nil {
		log.Printf("[!] %v", err)
		return
	}
	anchors, err := page.Anchors(ctx, ignoreSpec, file.Scope)
	if err != nil {
		log.Printf("[!] Could not locate ignored elements: %v", err)
		return
	}
	for _, a := range anchors {
		fmt.Printf("[*] %s %s at %v\n", a.Strategy, a.Locator, a.Rect)
	}
}

func printStats(cfg *config.Config, stats engine.Stats) {
	perImage := 0.0
	if stats.Processed > 0 {
		perImage = stats.Total.Seconds() / float64(stats.Processed)
	}
	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Processed: %d | Failed: %d\n"+
			"Per Screenshot: %.3fs\n"+
			"Memory: %s\n"+
			"----------------------------\n",
		cfg.BuildVersion, stats.Total.Seconds(), stats.Processed, stats.Failed, perImage, system.MemoryReport(),
	)
	fmt.Print(report)

	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Processed: %d | Failed: %d | Total: %.2fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		cfg.BuildVersion,
		filepath.Base(cfg.InputPath),
		stats.Processed,
		stats.Failed,
		stats.Total.Seconds(),
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Could not write benchmark.log: %v\n", err)
	}
}
