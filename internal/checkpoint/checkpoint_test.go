package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/passport-tracker/constants"
	"github.com/joseph-ayodele/passport-tracker/internal/passport"
)

func sampleRow(id string) Row {
	rec := passport.Record{
		constants.FieldNumber:    {Value: "L898902C3", Probability: 0.95, Certain: true},
		constants.FieldSurname:   {Value: "ERIKSSON", Probability: 0.9},
		constants.FieldBirthDate: {Value: "12/08/1974", Probability: 0.88, Certain: true},
	}
	return FromRecord(id, rec)
}

func TestFromRecord(t *testing.T) {
	row := sampleRow("A-100")

	assert.Equal(t, "A-100", row.ApplicantID)
	assert.Equal(t, "L898902C3", row.Outputs[constants.FieldNumber])
	assert.Equal(t, "L898902C3", row.OriginalNumber)
	assert.Equal(t, 0.95, row.Probabilities[constants.FieldNumber])
	assert.True(t, row.Certainty[constants.FieldNumber])
	assert.False(t, row.Certainty[constants.FieldSurname])

	// every output field gets a column, present or not
	assert.Len(t, row.Outputs, len(constants.OutputFields))
	assert.Empty(t, row.Outputs[constants.FieldSpouseName])
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := NewStore(path, nil)

	require.NoError(t, store.Append([]Row{sampleRow("A-100"), sampleRow("A-101")}))

	rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "A-100", rows[0].ApplicantID)
	assert.Equal(t, "ERIKSSON", rows[0].Outputs[constants.FieldSurname])
	assert.Equal(t, "12/08/1974", rows[0].Outputs[constants.FieldBirthDate])
	assert.Equal(t, 0.9, rows[0].Probabilities[constants.FieldSurname])
	assert.True(t, rows[0].Certainty[constants.FieldBirthDate])
	assert.Equal(t, "L898902C3", rows[1].OriginalNumber)
}

func TestStoreAppendResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := NewStore(path, nil)

	require.NoError(t, store.Append([]Row{sampleRow("A-100")}))
	require.NoError(t, store.Append([]Row{sampleRow("A-101")}))

	rows, err := store.Load()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// the header is written once, not per append
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, countLines(raw))
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}

func TestProcessedIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := NewStore(path, nil)

	// a missing file is a fresh run, not an error
	ids, err := store.ProcessedIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.Append([]Row{sampleRow("A-100"), sampleRow("A-101")}))

	ids, err = store.ProcessedIDs()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	_, ok := ids["A-100"]
	assert.True(t, ok)
}

func TestLoadTolerantOfMissingCertainty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	csvData := "inputs.image_id,outputs.number,probability.number\n" +
		"A-200,L898902C3,0.75\n"
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0o644))

	rows, err := NewStore(path, nil).Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "A-200", rows[0].ApplicantID)
	assert.Equal(t, "L898902C3", rows[0].Outputs[constants.FieldNumber])
	assert.Equal(t, 0.75, rows[0].Probabilities[constants.FieldNumber])
	assert.Empty(t, rows[0].Certainty)
}

func TestAppendNothingIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := NewStore(path, nil)

	require.NoError(t, store.Append(nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
