// Package pipeline walks an image root, runs each applicant's passport scans
// through the document reader, and appends the mapped, postprocessed record
// to the results checkpoint.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/passport-tracker/constants"
	"github.com/joseph-ayodele/passport-tracker/internal/checkpoint"
	"github.com/joseph-ayodele/passport-tracker/internal/common"
	"github.com/joseph-ayodele/passport-tracker/internal/imgutil"
	"github.com/joseph-ayodele/passport-tracker/internal/normalize"
	"github.com/joseph-ayodele/passport-tracker/internal/passport"
	"github.com/joseph-ayodele/passport-tracker/internal/recognize"
)

// Recognizer is the document-reader call the pipeline depends on.
type Recognizer interface {
	Recognize(ctx context.Context, images []string) (*recognize.Response, []byte, error)
}

// Processor coordinates encode, recognize, map and checkpoint per applicant.
type Processor struct {
	recognizer Recognizer
	store      *checkpoint.Store
	limiter    *RateLimiter
	resultsDir string
	logger     *slog.Logger
}

func NewProcessor(recognizer Recognizer, store *checkpoint.Store, limiter *RateLimiter, resultsDir string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		recognizer: recognizer,
		store:      store,
		limiter:    limiter,
		resultsDir: resultsDir,
		logger:     logger,
	}
}

// Stats summarises one batch run.
type Stats struct {
	Processed int
	Skipped   int
	Failed    int
}

// Run processes every applicant directory under imageRoot. Directories
// already present in the checkpoint, and directories with no accepted image
// files, are skipped. Individual applicant failures are recorded and the
// batch continues; only context cancellation and checkpoint write errors
// abort the run.
func (p *Processor) Run(ctx context.Context, imageRoot string) (Stats, error) {
	var stats Stats

	done, err := p.store.ProcessedIDs()
	if err != nil {
		return stats, fmt.Errorf("read checkpoint: %w", err)
	}

	entries, err := os.ReadDir(imageRoot)
	if err != nil {
		return stats, fmt.Errorf("read image root: %w", err)
	}

	rawDir := filepath.Join(p.resultsDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return stats, fmt.Errorf("create raw dir: %w", err)
	}

	p.logger.Info("pipeline.run.start",
		"image_root", imageRoot,
		"applicants", len(entries),
		"already_processed", len(done),
	)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		if _, ok := done[id]; ok {
			stats.Skipped++
			continue
		}

		images, err := listImages(filepath.Join(imageRoot, id))
		if err != nil {
			p.logger.Error("pipeline.applicant.failed", "applicant_id", id, "error", err)
			stats.Failed++
			continue
		}
		if len(images) == 0 {
			p.logger.Warn("pipeline.applicant.empty", "applicant_id", id)
			stats.Skipped++
			continue
		}

		if err := p.processApplicant(ctx, rawDir, id, images); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			if isFatal(err) {
				return stats, err
			}
			stats.Failed++
			continue
		}
		stats.Processed++
	}

	p.logger.Info("pipeline.run.ok",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats, nil
}

// fatalError aborts the whole batch instead of moving to the next applicant.
type fatalError struct{ err error }

func (e fatalError) Error() string { return e.err.Error() }
func (e fatalError) Unwrap() error { return e.err }

func isFatal(err error) bool {
	var fe fatalError
	return errors.As(err, &fe)
}

func (p *Processor) processApplicant(ctx context.Context, rawDir, id string, images []string) error {
	start := time.Now()

	encoded := make([]string, 0, len(images))
	for _, path := range images {
		data, err := imgutil.EncodeFile(path)
		if err != nil {
			p.logger.Error("pipeline.applicant.failed", "applicant_id", id, "stage", "encode", "error", err)
			return err
		}
		encoded = append(encoded, data)
	}

	var (
		resp *recognize.Response
		raw  []byte
	)
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		resp, raw, err = p.recognizer.Recognize(ctx, encoded)
		if err == nil {
			break
		}
		if common.IsRateLimit(err) {
			if berr := p.limiter.Backoff(ctx); berr != nil {
				return berr
			}
			continue
		}
		p.writeDebug(rawDir, id, raw, err)
		p.logger.Error("pipeline.applicant.failed", "applicant_id", id, "stage", "recognize", "error", err)
		return err
	}

	if err := os.WriteFile(filepath.Join(rawDir, id+".json"), raw, 0o644); err != nil {
		p.logger.Warn("pipeline.raw.write_failed", "applicant_id", id, "error", err)
	}

	record := passport.FromResponse(resp)
	normalize.Apply(record)

	if err := p.store.Append([]checkpoint.Row{checkpoint.FromRecord(id, record)}); err != nil {
		return fatalError{fmt.Errorf("append checkpoint: %w", err)}
	}

	p.limiter.Success()
	p.logger.Info("pipeline.applicant.ok",
		"applicant_id", id,
		"images", len(images),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// writeDebug dumps whatever the reader returned so a failed applicant can be
// inspected later without rerunning the call.
func (p *Processor) writeDebug(rawDir, id string, raw []byte, cause error) {
	payload := raw
	if len(payload) == 0 {
		payload, _ = json.Marshal(map[string]string{"error": cause.Error()})
	}
	path := filepath.Join(rawDir, "debug_"+id+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		p.logger.Warn("pipeline.debug.write_failed", "applicant_id", id, "error", err)
	}
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read applicant dir: %w", err)
	}
	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if constants.IsAllowedExt(filepath.Ext(e.Name())) {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	return images, nil
}
