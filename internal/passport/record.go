// Package passport defines the canonical passport record and the mapper that
// flattens raw recognizer output into it.
package passport

import (
	"strings"

	"github.com/joseph-ayodele/passport-tracker/internal/textutil"
)

// Field is one extracted value with the recognizer's confidence for it and a
// certainty flag set during postprocessing.
type Field struct {
	Value       string
	Probability float64 // 0..1
	Certain     bool
}

// Record maps canonical field names to their current best value. The zero
// value of a missing key is an empty uncertain field, so lookups never need
// an existence check.
type Record map[string]Field

// sentinel strings that OCR and spreadsheet round-trips produce for "empty".
var sentinels = map[string]struct{}{
	"nan": {}, "none": {}, "null": {}, "n/a": {}, "na": {},
}

// CleanValue collapses whitespace and maps sentinel strings to "".
func CleanValue(s string) string {
	s = textutil.CollapseWhitespace(s)
	if _, ok := sentinels[strings.ToLower(s)]; ok {
		return ""
	}
	return s
}

// Value returns the cleaned value for a field.
func (r Record) Value(key string) string {
	return CleanValue(r[key].Value)
}

// Probability returns the confidence recorded for a field.
func (r Record) Probability(key string) float64 {
	return r[key].Probability
}

// Certain returns the certainty flag for a field.
func (r Record) Certain(key string) bool {
	return r[key].Certain
}

// Set replaces a field's value, keeping its existing probability and
// certainty.
func (r Record) Set(key, value string) {
	f := r[key]
	f.Value = value
	r[key] = f
}

// SetProb replaces a field's value and probability.
func (r Record) SetProb(key, value string, prob float64) {
	f := r[key]
	f.Value = value
	f.Probability = prob
	r[key] = f
}

// SetCertain replaces a field's value and certainty flag.
func (r Record) SetCertain(key, value string, certain bool) {
	f := r[key]
	f.Value = value
	f.Certain = certain
	r[key] = f
}

// Clone returns a shallow copy; Field is a value type so the copy is
// independent.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
