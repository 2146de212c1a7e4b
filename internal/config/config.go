package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	InputPath    string
	IgnorePath   string
	OutputPath   string
	DebugDir     string
	PageURL      string
	RemoteURL    string
	Workers      int
	ShowStats    bool
	BuildVersion string
}

// Defaults returns the configuration used when neither flags nor the
// environment say otherwise. A .env file in the working directory is
// loaded first; a missing file is not an error.
//
//	SHOTIGNORE_IGNORE_FILE  default ignore file
//	SHOTIGNORE_OUTPUT       default output file or directory
//	SHOTIGNORE_DEBUG_DIR    directory for intermediate images
//	SHOTIGNORE_WORKERS      parallel screenshots
//	SHOTIGNORE_BROWSER_URL  DevTools websocket of a running browser
func Defaults() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		IgnorePath: os.Getenv("SHOTIGNORE_IGNORE_FILE"),
		OutputPath: os.Getenv("SHOTIGNORE_OUTPUT"),
		DebugDir:   os.Getenv("SHOTIGNORE_DEBUG_DIR"),
		RemoteURL:  os.Getenv("SHOTIGNORE_BROWSER_URL"),
		Workers:    runtime.NumCPU(),
	}
	if cfg.IgnorePath == "" {
		cfg.IgnorePath = "ignore.yaml"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "output"
	}
	if n, err := strconv.Atoi(os.Getenv("SHOTIGNORE_WORKERS")); err == nil && n > 0 {
		cfg.Workers = n
	}
	return cfg
}
