package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/passport-tracker/internal/checkpoint"
	"github.com/joseph-ayodele/passport-tracker/internal/common"
	"github.com/joseph-ayodele/passport-tracker/internal/export"
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
		results = flag.String("results", "", "checkpoint CSV to upload (defaults to <RESULTS_DIR>/results.csv)")
		country = flag.String("country", "", "dataset country for agent-value comparison, e.g. India")
	)
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if err := cfg.ValidateForUpload(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	resultsPath := *results
	if resultsPath == "" {
		resultsPath = filepath.Join(cfg.Pipeline.ResultsDir, "results.csv")
	}

	store := checkpoint.NewStore(resultsPath, logger)

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

	logger.Info("upload complete", "results", resultsPath, "spreadsheet_id", cfg.Sheets.SpreadsheetID)
}
