package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/passport-tracker/internal/checkpoint"
	"github.com/joseph-ayodele/passport-tracker/internal/common"
	"github.com/joseph-ayodele/passport-tracker/internal/export"
	"github.com/joseph-ayodele/passport-tracker/internal/pipeline"
	"github.com/joseph-ayodele/passport-tracker/internal/recognize"
	"github.com/joseph-ayodele/passport-tracker/internal/review"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	_ = godotenv.Load()

	// Parse CLI flags
	var (
		images     = flag.String("images", "", "image root, one subdirectory per applicant (defaults to IMAGE_PATH)")
		out        = flag.String("out", "", "results directory (defaults to RESULTS_DIR)")
		delay      = flag.Duration("delay", 0, "starting delay between recognition calls, e.g. 8s (defaults to DOCREADER_API_DELAY)")
		country    = flag.String("country", "", "dataset country for agent-value comparison, e.g. India")
		skipUpload = flag.Bool("skip-upload", false, "run extraction only, do not push the comparison sheet")
	)
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if *images != "" {
		cfg.Pipeline.ImageRoot = *images
	}
	if *out != "" {
		cfg.Pipeline.ResultsDir = *out
	}
	if *delay > 0 {
		cfg.Pipeline.StartDelay = *delay
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	recognizer := recognize.NewClient(recognize.Config{
		BaseURL:    cfg.Recognizer.BaseURL,
		Scenario:   cfg.Recognizer.Scenario,
		Timeout:    cfg.Recognizer.Timeout,
		MaxRetries: cfg.Recognizer.MaxRetries,
		RetryBase:  cfg.Recognizer.RetryBase,
	}, logger)

	store := checkpoint.NewStore(filepath.Join(cfg.Pipeline.ResultsDir, "results.csv"), logger)
	limiter := pipeline.NewRateLimiter(cfg.Pipeline.StartDelay, cfg.Pipeline.MinDelay, cfg.Pipeline.Cooldown, logger)
	processor := pipeline.NewProcessor(recognizer, store, limiter, cfg.Pipeline.ResultsDir, logger)

	logger.Info("batch starting",
		"image_root", cfg.Pipeline.ImageRoot,
		"results", store.Path(),
		"delay", cfg.Pipeline.StartDelay.String(),
	)

	start := time.Now()
	stats, err := processor.Run(ctx, cfg.Pipeline.ImageRoot)
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if *skipUpload {
		return
	}
	if err := cfg.ValidateForUpload(); err != nil {
		logger.Warn("upload skipped, configuration incomplete", "error", err)
		return
	}

	workbooks, err := review.DiscoverWorkbooks(cfg.Review.WorkbookDir)
	if err != nil {
		logger.Error("failed to discover review workbooks", "error", err)
		os.Exit(1)
	}
	consolidator := review.NewConsolidator(workbooks, cfg.Review.CachePath, logger)

	sheet, err := export.NewSheetsClient(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.TokenPath, logger)
	if err != nil {
		logger.Error("failed to initialize sheets client", "error", err)
		os.Exit(1)
	}

	uploader := export.NewService(store, consolidator, sheet, logger)
	if err := uploader.Upload(ctx, cfg.Sheets.SpreadsheetID, *country); err != nil {
		logger.Error("failed to upload comparison table", "error", err)
		os.Exit(1)
	}
}
