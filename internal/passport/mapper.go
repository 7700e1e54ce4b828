package passport

import (
	"strings"

	"github.com/joseph-ayodele/passport-tracker/constants"
	"github.com/joseph-ayodele/passport-tracker/internal/recognize"
	"github.com/joseph-ayodele/passport-tracker/internal/textutil"
)

// fieldAliases maps canonical fields to the display names recognizers use
// for them. Lookup is exact first, then substring.
var fieldAliases = map[string][]string{
	constants.FieldNumber:         {"document number", "number", "passport number", "doc number"},
	constants.FieldCountry:        {"nationality code", "country code"},
	constants.FieldName:           {"given names", "given name(s)", "first name", "first names", "name"},
	constants.FieldSurname:        {"surname", "last name", "secondary id"},
	constants.FieldMiddleName:     {"middle name", "middle names"},
	constants.FieldGender:         {"gender", "sex"},
	constants.FieldPlaceOfBirth:   {"place of birth", "birth place"},
	constants.FieldBirthDate:      {"date of birth", "birth date"},
	constants.FieldIssueDate:      {"date of issue", "issue date"},
	constants.FieldExpiryDate:     {"date of expiry", "expiry date", "expiration date"},
	constants.FieldMotherName:     {"mother name", "mother's name"},
	constants.FieldFatherName:     {"father name", "father's name", "guardian"},
	constants.FieldSpouseName:     {"spouse name", "spouse"},
	constants.FieldPlaceOfIssue:   {"issuing authority", "issuing state", "place of issue", "authority", "issuing office"},
	constants.FieldCountryOfIssue: {"issuing state code", "issuing country", "issuing state name"},
}

// preferSource pins fields to a source when both exist. MRZ is canonical for
// the number and the machine-printed dates; it never carries an issue date,
// so that one prefers VISUAL. Unlisted fields pick by probability.
var preferSource = map[string]string{
	constants.FieldNumber:     recognize.SourceMRZ,
	constants.FieldBirthDate:  recognize.SourceMRZ,
	constants.FieldExpiryDate: recognize.SourceMRZ,
	constants.FieldIssueDate:  recognize.SourceVisual,
}

const mrzStringsKey = "mrz strings"

// candidate is one reading of a field from one source.
type candidate struct {
	value string
	prob  float64 // normalized to 0..1
}

// fieldIndex maps lower-cased recognizer field names to per-source candidates.
type fieldIndex map[string]map[string][]candidate

func buildIndex(resp *recognize.Response) fieldIndex {
	idx := fieldIndex{}
	for _, f := range resp.Fields() {
		name := strings.ToLower(textutil.CollapseWhitespace(f.Label()))
		if name == "" {
			continue
		}
		rec, ok := idx[name]
		if !ok {
			rec = map[string][]candidate{recognize.SourceMRZ: nil, recognize.SourceVisual: nil}
			idx[name] = rec
		}
		for _, v := range f.ValueList {
			src := strings.ToUpper(v.Source)
			if src != recognize.SourceMRZ && src != recognize.SourceVisual {
				continue
			}
			val := textutil.CollapseWhitespace(v.Text())
			if val == "" {
				continue
			}
			// probability arrives on a 0-100 scale
			rec[src] = append(rec[src], candidate{value: val, prob: v.Probability / 100.0})
		}
		// rare older payloads carry a flat value with no source; treat as VISUAL
		if len(rec[recognize.SourceMRZ]) == 0 && len(rec[recognize.SourceVisual]) == 0 {
			if flat := textutil.CollapseWhitespace(f.Value); flat != "" {
				rec[recognize.SourceVisual] = append(rec[recognize.SourceVisual],
					candidate{value: flat, prob: f.Probability / 100.0})
			}
		}
	}
	return idx
}

// lookup finds the index key for a set of aliases: first exact, then
// substring containment.
func (idx fieldIndex) lookup(aliases []string) (string, bool) {
	for _, a := range aliases {
		if _, ok := idx[a]; ok {
			return a, true
		}
	}
	for key := range idx {
		for _, a := range aliases {
			if strings.Contains(key, a) {
				return key, true
			}
		}
	}
	return "", false
}

// choose picks a single value for the aliased field: the preferred source's
// best candidate when present, else the best candidate overall with VISUAL
// winning probability ties.
func (idx fieldIndex) choose(aliases []string, prefer string) (string, string, float64) {
	key, ok := idx.lookup(aliases)
	if !ok {
		return "", "", 0
	}
	rec := idx[key]
	if prefer != "" {
		if best, ok := bestCandidate(rec[prefer]); ok {
			return best.value, prefer, best.prob
		}
	}
	bestVal, bestSrc, bestProb := "", "", -1.0
	for _, src := range []string{recognize.SourceVisual, recognize.SourceMRZ} {
		for _, c := range rec[src] {
			if c.prob > bestProb {
				bestVal, bestSrc, bestProb = c.value, src, c.prob
			}
		}
	}
	if bestSrc == "" {
		return "", "", 0
	}
	return bestVal, bestSrc, bestProb
}

// bestSource picks only from the given source, ignoring preference rules.
func (idx fieldIndex) bestSource(aliases []string, source string) (string, float64, bool) {
	key, ok := idx.lookup(aliases)
	if !ok {
		return "", 0, false
	}
	best, ok := bestCandidate(idx[key][source])
	if !ok {
		return "", 0, false
	}
	return best.value, best.prob, true
}

func bestCandidate(cands []candidate) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.prob > best.prob {
			best = c
		}
	}
	return best, true
}

// ToRecord flattens one recognition result into a canonical record.
func ToRecord(resp *recognize.Response) Record {
	idx := buildIndex(resp)
	rec := Record{}

	for _, field := range constants.OutputFields {
		if field == constants.FieldMRZLine1 || field == constants.FieldMRZLine2 {
			continue
		}
		val, _, prob := idx.choose(fieldAliases[field], preferSource[field])
		rec.SetProb(field, val, prob)
	}

	// MRZ shadow fields for cross-validation: the best MRZ-sourced reading
	// of the name fields and gender, independent of the selection above.
	shadow := map[string]string{
		constants.FieldMRZSurname: constants.FieldSurname,
		constants.FieldMRZName:    constants.FieldName,
		constants.FieldMRZGender:  constants.FieldGender,
	}
	for shadowField, mainField := range shadow {
		if val, prob, ok := idx.bestSource(fieldAliases[mainField], recognize.SourceMRZ); ok {
			rec.SetProb(shadowField, val, prob)
		}
	}

	// MRZ lines come from the dedicated "MRZ Strings" field; prefer the
	// MRZ-sourced block, else the visually read one.
	block, prob, ok := idx.bestSource([]string{mrzStringsKey}, recognize.SourceMRZ)
	if !ok {
		block, prob, ok = idx.bestSource([]string{mrzStringsKey}, recognize.SourceVisual)
	}
	if ok {
		l1, l2 := SplitMRZBlock(block)
		if l1 != "" {
			rec.SetProb(constants.FieldMRZLine1, l1, prob)
		}
		if l2 != "" {
			rec.SetProb(constants.FieldMRZLine2, l2, prob)
		}
	}
	return rec
}

// Merge combines per-page records into one: first non-empty value per field,
// except the MRZ lines where the longest reading wins.
func Merge(records []Record) Record {
	out := Record{}
	keys := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			keys[k] = struct{}{}
		}
	}
	for k := range keys {
		if k == constants.FieldMRZLine1 || k == constants.FieldMRZLine2 {
			var best Field
			for _, r := range records {
				if f := r[k]; len(f.Value) > len(best.Value) {
					best = f
				}
			}
			out[k] = best
			continue
		}
		for _, r := range records {
			if f := r[k]; strings.TrimSpace(f.Value) != "" {
				out[k] = f
				break
			}
		}
	}
	return out
}

// FromResponse maps the top-level result and any per-image child results,
// merging them into a single record for the applicant.
func FromResponse(resp *recognize.Response) Record {
	base := ToRecord(resp)
	root := resp.Root()
	if root == nil || len(root.List) == 0 {
		return base
	}
	records := []Record{base}
	for i := range root.List {
		records = append(records, ToRecord(&root.List[i]))
	}
	return Merge(records)
}
