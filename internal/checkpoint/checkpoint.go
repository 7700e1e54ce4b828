// Package checkpoint persists per-applicant extraction results to a flat CSV
// file. The file doubles as the resumption state: applicants already present
// are skipped on the next run. There is deliberately no database here.
package checkpoint

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joseph-ayodele/passport-tracker/constants"
	"github.com/joseph-ayodele/passport-tracker/internal/passport"
)

const (
	colApplicantID    = "inputs.image_id"
	colOriginalNumber = "outputs.original number"
	colCertainty      = "certainty"

	outputPrefix      = "outputs."
	probabilityPrefix = "probability."
)

// Row is one applicant's extraction result.
type Row struct {
	ApplicantID    string
	Outputs        map[string]string
	OriginalNumber string
	Probabilities  map[string]float64
	Certainty      map[string]bool
}

// FromRecord flattens a postprocessed record into a checkpoint row.
// OriginalNumber keeps the number as extracted so the uploader can fall back
// to it when a country rule blanked the field.
func FromRecord(applicantID string, rec passport.Record) Row {
	row := Row{
		ApplicantID:   applicantID,
		Outputs:       make(map[string]string, len(constants.OutputFields)),
		Probabilities: make(map[string]float64, len(constants.OutputFields)),
		Certainty:     make(map[string]bool, len(constants.OutputFields)),
	}
	for _, field := range constants.OutputFields {
		row.Outputs[field] = rec.Value(field)
		row.Probabilities[field] = rec.Probability(field)
		row.Certainty[field] = rec.Certain(field)
	}
	row.OriginalNumber = rec.Value(constants.FieldNumber)
	return row
}

// Store reads and appends the results CSV.
type Store struct {
	path   string
	logger *slog.Logger
}

func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string { return s.path }

func header() []string {
	cols := []string{colApplicantID}
	for _, field := range constants.OutputFields {
		cols = append(cols, outputPrefix+field)
	}
	cols = append(cols, colOriginalNumber)
	for _, field := range constants.OutputFields {
		cols = append(cols, probabilityPrefix+field)
	}
	cols = append(cols, colCertainty)
	return cols
}

func (r Row) values() []string {
	vals := []string{r.ApplicantID}
	for _, field := range constants.OutputFields {
		vals = append(vals, r.Outputs[field])
	}
	vals = append(vals, r.OriginalNumber)
	for _, field := range constants.OutputFields {
		vals = append(vals, strconv.FormatFloat(r.Probabilities[field], 'f', -1, 64))
	}
	blob, _ := json.Marshal(r.Certainty)
	vals = append(vals, string(blob))
	return vals
}

// ProcessedIDs returns the applicant IDs already checkpointed. A missing
// file means a fresh run.
func (s *Store) ProcessedIDs() (map[string]struct{}, error) {
	rows, err := s.Load()
	if os.IsNotExist(err) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		ids[r.ApplicantID] = struct{}{}
	}
	return ids, nil
}

// Load reads every checkpointed row. Column order is taken from the header so
// files written by older layouts still load.
func (s *Store) Load() ([]Row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("checkpoint.close_error", "path", s.path, "error", cerr)
		}
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read checkpoint csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	colIdx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		colIdx[name] = i
	}
	get := func(rec []string, col string) string {
		if i, ok := colIdx[col]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := Row{
			ApplicantID:    get(rec, colApplicantID),
			Outputs:        map[string]string{},
			Probabilities:  map[string]float64{},
			Certainty:      map[string]bool{},
			OriginalNumber: get(rec, colOriginalNumber),
		}
		for _, field := range constants.OutputFields {
			row.Outputs[field] = get(rec, outputPrefix+field)
			if p, err := strconv.ParseFloat(get(rec, probabilityPrefix+field), 64); err == nil {
				row.Probabilities[field] = p
			}
		}
		if blob := get(rec, colCertainty); blob != "" {
			// tolerate rows written before the certainty column existed
			_ = json.Unmarshal([]byte(blob), &row.Certainty)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Append writes rows to the checkpoint file, creating it (with header) when
// absent.
func (s *Store) Append(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	_, statErr := os.Stat(s.path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open checkpoint csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("checkpoint.close_error", "path", s.path, "error", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row.values()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush checkpoint csv: %w", err)
	}

	s.logger.Info("checkpoint.append.ok", "path", s.path, "rows", len(rows), "fresh", fresh)
	return nil
}
