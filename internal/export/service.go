package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/passport-tracker/internal/checkpoint"
	"github.com/joseph-ayodele/passport-tracker/internal/review"
)

// Service merges a results checkpoint with the consolidated review data and
// uploads the comparison table.
type Service struct {
	results      *checkpoint.Store
	consolidator *review.Consolidator
	sheet        SheetWriter
	logger       *slog.Logger
}

func NewService(results *checkpoint.Store, consolidator *review.Consolidator, sheet SheetWriter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{results: results, consolidator: consolidator, sheet: sheet, logger: logger}
}

// Upload builds the comparison table for the dataset country and replaces
// the target spreadsheet's contents with it.
func (s *Service) Upload(ctx context.Context, spreadsheetID, datasetCountry string) error {
	rid := uuid.New().String()
	start := time.Now()

	resultRows, err := s.results.Load()
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	reviewRows, err := s.consolidator.Load()
	if err != nil {
		return fmt.Errorf("load review data: %w", err)
	}

	comparison := BuildComparison(resultRows, reviewRows, datasetCountry)
	matches := 0
	for _, r := range comparison {
		if r.Match {
			matches++
		}
	}

	if err := s.sheet.Replace(ctx, spreadsheetID, ToValues(comparison)); err != nil {
		s.logger.Error("export.upload.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("upload comparison table: %w", err)
	}

	s.logger.Info("export.upload.ok",
		"req_id", rid,
		"results", len(resultRows),
		"reviewed", len(reviewRows),
		"rows", len(comparison),
		"matches", matches,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
