package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/passport-tracker/internal/checkpoint"
	"github.com/joseph-ayodele/passport-tracker/internal/review"
)

type fakeSheet struct {
	spreadsheetID string
	values        [][]string
	err           error
}

func (f *fakeSheet) Replace(_ context.Context, spreadsheetID string, values [][]string) error {
	f.spreadsheetID = spreadsheetID
	f.values = values
	return f.err
}

func setupService(t *testing.T, sheet SheetWriter) *Service {
	t.Helper()
	dir := t.TempDir()

	store := checkpoint.NewStore(filepath.Join(dir, "results.csv"), nil)
	require.NoError(t, store.Append([]checkpoint.Row{resultRow("A-100")}))

	cache := filepath.Join(dir, "consolidated_data.csv")
	cacheCSV := "Applicant ID,Modified Field,Agent Value,OCR Value,Nationality\n" +
		"A-100,Last Name,Eriksson,ERIKSON,Sweden\n" +
		"A-100,Gender,Female,M,Sweden\n"
	require.NoError(t, os.WriteFile(cache, []byte(cacheCSV), 0o644))
	consolidator := review.NewConsolidator(nil, cache, nil)

	return NewService(store, consolidator, sheet, nil)
}

func TestServiceUpload(t *testing.T) {
	sheet := &fakeSheet{}
	svc := setupService(t, sheet)

	require.NoError(t, svc.Upload(context.Background(), "sheet-123", "Sweden"))

	assert.Equal(t, "sheet-123", sheet.spreadsheetID)
	require.Len(t, sheet.values, 3) // header + two reviewed corrections
	assert.Equal(t, Headers, sheet.values[0])
	assert.Equal(t, "A-100", sheet.values[1][0])
	assert.Equal(t, "ERIKSSON", sheet.values[1][2])
}

func TestServiceUploadSheetError(t *testing.T) {
	sheet := &fakeSheet{err: errors.New("quota exceeded")}
	svc := setupService(t, sheet)

	err := svc.Upload(context.Background(), "sheet-123", "Sweden")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
