package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/passport-tracker/constants"
	"github.com/joseph-ayodele/passport-tracker/internal/checkpoint"
	"github.com/joseph-ayodele/passport-tracker/internal/common"
	"github.com/joseph-ayodele/passport-tracker/internal/recognize"
)

// fakeRecognizer pops one canned result per call.
type fakeRecognizer struct {
	results []func() (*recognize.Response, []byte, error)
	calls   int
	images  [][]string
}

func (f *fakeRecognizer) Recognize(_ context.Context, images []string) (*recognize.Response, []byte, error) {
	f.images = append(f.images, images)
	if f.calls >= len(f.results) {
		return nil, nil, errors.New("unexpected call")
	}
	res := f.results[f.calls]
	f.calls++
	return res()
}

func okResult() (*recognize.Response, []byte, error) {
	resp := &recognize.Response{
		ContainerList: &recognize.ContainerList{
			List: []recognize.Container{
				{Text: &recognize.TextResult{FieldList: []recognize.TextField{
					{FieldName: "Surname", ValueList: []recognize.FieldValue{
						{Value: "ERIKSSON", Source: recognize.SourceVisual, Probability: 92},
					}},
				}}},
			},
		},
	}
	return resp, []byte(`{"ok":true}`), nil
}

func writeApplicantImage(t *testing.T, root, id, name string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func newTestProcessor(t *testing.T, rec Recognizer) (*Processor, *checkpoint.Store, string) {
	t.Helper()
	resultsDir := t.TempDir()
	store := checkpoint.NewStore(filepath.Join(resultsDir, "results.csv"), nil)
	limiter := NewRateLimiter(time.Millisecond, time.Millisecond, time.Millisecond, nil)
	return NewProcessor(rec, store, limiter, resultsDir, nil), store, resultsDir
}

func TestRunProcessesApplicants(t *testing.T) {
	root := t.TempDir()
	writeApplicantImage(t, root, "A-100", "front.png")
	writeApplicantImage(t, root, "A-101", "scan.png")
	// an empty applicant folder and a non-image file are both skipped
	require.NoError(t, os.MkdirAll(filepath.Join(root, "A-102"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	rec := &fakeRecognizer{results: []func() (*recognize.Response, []byte, error){okResult, okResult}}
	p, store, resultsDir := newTestProcessor(t, rec)

	stats, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 2, Skipped: 1, Failed: 0}, stats)

	rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A-100", rows[0].ApplicantID)
	assert.Equal(t, "ERIKSSON", rows[0].Outputs[constants.FieldSurname])

	// each successful applicant leaves a raw payload dump
	_, err = os.Stat(filepath.Join(resultsDir, "raw", "A-100.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(resultsDir, "raw", "A-101.json"))
	assert.NoError(t, err)
}

func TestRunSkipsCheckpointedApplicants(t *testing.T) {
	root := t.TempDir()
	writeApplicantImage(t, root, "A-100", "front.png")
	writeApplicantImage(t, root, "A-101", "front.png")

	rec := &fakeRecognizer{results: []func() (*recognize.Response, []byte, error){okResult}}
	p, store, _ := newTestProcessor(t, rec)

	// A-100 was handled by an earlier run
	require.NoError(t, store.Append([]checkpoint.Row{{ApplicantID: "A-100", Outputs: map[string]string{}}}))

	stats, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Skipped: 1, Failed: 0}, stats)
	assert.Equal(t, 1, rec.calls)
}

func TestRunRecordsFailureAndContinues(t *testing.T) {
	root := t.TempDir()
	writeApplicantImage(t, root, "A-100", "front.png")
	writeApplicantImage(t, root, "A-101", "front.png")

	boom := func() (*recognize.Response, []byte, error) {
		return nil, []byte(`{"error":"bad document"}`), errors.New("recognition failed")
	}
	rec := &fakeRecognizer{results: []func() (*recognize.Response, []byte, error){boom, okResult}}
	p, store, resultsDir := newTestProcessor(t, rec)

	stats, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Skipped: 0, Failed: 1}, stats)

	// the failed applicant left a debug payload and no checkpoint row
	raw, err := os.ReadFile(filepath.Join(resultsDir, "raw", "debug_A-100.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "bad document")

	rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-101", rows[0].ApplicantID)
}

func TestRunCoolsDownOnRateLimit(t *testing.T) {
	root := t.TempDir()
	writeApplicantImage(t, root, "A-100", "front.png")

	limited := func() (*recognize.Response, []byte, error) {
		return nil, nil, common.NewAppError("RECOGNIZE_RATE_LIMIT", "status 429", common.ErrRateLimited)
	}
	rec := &fakeRecognizer{results: []func() (*recognize.Response, []byte, error){limited, okResult}}
	p, store, _ := newTestProcessor(t, rec)

	stats, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Skipped: 0, Failed: 0}, stats)

	// the applicant was retried after the cooldown, not dropped
	assert.Equal(t, 2, rec.calls)
	rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRunMissingRootFails(t *testing.T) {
	rec := &fakeRecognizer{}
	p, _, _ := newTestProcessor(t, rec)

	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
