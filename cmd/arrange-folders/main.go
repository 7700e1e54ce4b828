package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/passport-tracker/constants"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// arrange-folders moves loose image files into one folder per applicant, so
// a flat export of scans becomes the directory layout the batch expects.
// The applicant ID is the file name without its extension.
func main() {
	dir := flag.String("dir", "", "directory of loose image files (required)")
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Error("failed to read directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	moved := 0
	skipped := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !constants.IsAllowedExt(ext) {
			skipped++
			continue
		}

		id := strings.TrimSuffix(name, ext)
		target := filepath.Join(*dir, id)
		if err := os.MkdirAll(target, 0o755); err != nil {
			logger.Error("failed to create folder", "applicant_id", id, "error", err)
			os.Exit(1)
		}
		if err := os.Rename(filepath.Join(*dir, name), filepath.Join(target, name)); err != nil {
			logger.Error("failed to move file", "file", name, "error", err)
			os.Exit(1)
		}
		moved++
	}

	logger.Info("arrange complete", "dir", *dir, "moved", moved, "skipped", skipped)
}
