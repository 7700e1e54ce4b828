// Package review loads the human-review workbooks: per-applicant corrections
// agents made to previously extracted fields. The workbooks are consolidated
// into one table and cached as CSV so repeated runs skip the Excel parsing.
package review

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Row is one reviewed correction: an agent changed ModifiedField for an
// applicant, and AgentValue is what they entered.
type Row struct {
	ApplicantID   string
	ModifiedField string
	AgentValue    string
	OCRValue      string
	Nationality   string
}

// Column headers expected in the workbooks' data sheet.
const (
	colApplicantID   = "Applicant ID"
	colModifiedField = "Modified Field"
	colAgentValue    = "Agent Value"
	colOCRValue      = "OCR Value"
	colNationality   = "Nationality"
)

var wantedColumns = []string{colApplicantID, colModifiedField, colAgentValue, colOCRValue, colNationality}

// Sheets tried in order when reading a workbook.
var dataSheets = []string{"Data", "Sheet 1"}

// Consolidator merges review workbooks and caches the result.
type Consolidator struct {
	workbookPaths []string
	cachePath     string
	logger        *slog.Logger
}

func NewConsolidator(workbookPaths []string, cachePath string, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consolidator{workbookPaths: workbookPaths, cachePath: cachePath, logger: logger}
}

// DiscoverWorkbooks lists the .xlsx files in a directory, sorted by name.
func DiscoverWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read workbook dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".xlsx") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Load returns the consolidated review rows, rebuilding the cache when any
// workbook is newer than it.
func (c *Consolidator) Load() ([]Row, error) {
	if c.cacheFresh() {
		rows, err := c.readCache()
		if err == nil {
			c.logger.Info("review.cache.loaded", "path", c.cachePath, "rows", len(rows))
			return rows, nil
		}
		c.logger.Warn("review.cache.read_error", "path", c.cachePath, "error", err)
	}
	return c.rebuild()
}

func (c *Consolidator) cacheFresh() bool {
	cacheInfo, err := os.Stat(c.cachePath)
	if err != nil {
		return false
	}
	for _, p := range c.workbookPaths {
		if info, err := os.Stat(p); err == nil && info.ModTime().After(cacheInfo.ModTime()) {
			return false
		}
	}
	return true
}

func (c *Consolidator) rebuild() ([]Row, error) {
	start := time.Now()
	var all []Row
	for _, path := range c.workbookPaths {
		rows, err := readWorkbook(path)
		if err != nil {
			c.logger.Warn("review.workbook.skip", "path", path, "error", err)
			continue
		}
		c.logger.Info("review.workbook.loaded", "path", path, "rows", len(rows))
		all = append(all, rows...)
	}

	all = forwardFill(all)
	all = dedupe(all)

	if err := c.writeCache(all); err != nil {
		c.logger.Warn("review.cache.write_error", "path", c.cachePath, "error", err)
	}
	c.logger.Info("review.consolidate.ok", "rows", len(all), "elapsed_ms", time.Since(start).Milliseconds())
	return all, nil
}

func readWorkbook(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var rows [][]string
	var readErr error
	for _, sheet := range dataSheets {
		rows, readErr = f.GetRows(sheet)
		if readErr == nil {
			break
		}
	}
	if readErr != nil {
		return nil, fmt.Errorf("no data sheet: %w", readErr)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	colIdx := map[string]int{}
	for i, name := range rows[0] {
		colIdx[strings.TrimSpace(name)] = i
	}
	get := func(rec []string, col string) string {
		if i, ok := colIdx[col]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	out := make([]Row, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		out = append(out, Row{
			ApplicantID:   get(rec, colApplicantID),
			ModifiedField: get(rec, colModifiedField),
			AgentValue:    get(rec, colAgentValue),
			OCRValue:      get(rec, colOCRValue),
			Nationality:   get(rec, colNationality),
		})
	}
	return out, nil
}

// forwardFill copies the applicant ID and nationality down through the
// blank cells Excel leaves under a merged block.
func forwardFill(rows []Row) []Row {
	lastID, lastNat := "", ""
	for i := range rows {
		if rows[i].ApplicantID == "" {
			rows[i].ApplicantID = lastID
		} else {
			lastID = rows[i].ApplicantID
		}
		if rows[i].Nationality == "" {
			rows[i].Nationality = lastNat
		} else {
			lastNat = rows[i].Nationality
		}
	}
	return rows
}

// dedupe keeps the first occurrence of each (applicant, field) pair.
func dedupe(rows []Row) []Row {
	seen := map[string]struct{}{}
	out := rows[:0]
	for _, r := range rows {
		key := r.ApplicantID + "\x00" + r.ModifiedField
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (c *Consolidator) readCache() ([]Row, error) {
	f, err := os.Open(c.cachePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 5 {
			continue
		}
		rows = append(rows, Row{
			ApplicantID:   rec[0],
			ModifiedField: rec[1],
			AgentValue:    rec[2],
			OCRValue:      rec[3],
			Nationality:   rec[4],
		})
	}
	return rows, nil
}

func (c *Consolidator) writeCache(rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(c.cachePath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(wantedColumns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.ApplicantID, r.ModifiedField, r.AgentValue, r.OCRValue, r.Nationality}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
