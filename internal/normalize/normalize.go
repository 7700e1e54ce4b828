// Package normalize is the postprocessing stage between the field mapper and
// the checkpoint: date normalization, country canonicalization, MRZ
// cross-validation and checksum recovery, country rules dispatch, and final
// string cleanup.
package normalize

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/passport-tracker/constants"
	"github.com/joseph-ayodele/passport-tracker/internal/geodata"
	"github.com/joseph-ayodele/passport-tracker/internal/passport"
	"github.com/joseph-ayodele/passport-tracker/internal/rules"
	"github.com/joseph-ayodele/passport-tracker/internal/textutil"
)

var titleCaser = cases.Title(language.English)

// Apply runs the full postprocessing pass over a mapped record, in place.
func Apply(rec passport.Record) {
	ApplyAt(rec, time.Now())
}

// ApplyAt is Apply with an injectable clock for the date sanity checks.
func ApplyAt(rec passport.Record, now time.Time) {
	country := canonicalizeNationality(rec)

	crossValidateNames(rec, country)
	stripCountryPrefixFromSurname(rec, country)
	recoverNumberFromMRZ(rec)
	normalizeDates(rec, now)
	applyMRZGender(rec)
	deriveCountryOfIssue(rec, country)
	cleanPlaceOfBirth(rec, country)
	canonicalizeCountryOfIssue(rec)

	rules.Apply(rec, country)

	formatStringFields(rec)
	confirmKnownBirthPlace(rec)
}

// canonicalizeNationality resolves the nationality to an alpha-3 code and
// returns it. A value already in the code table is certain; otherwise we try
// a title-cased name lookup ("KENYA" -> "Kenya" -> "KEN").
func canonicalizeNationality(rec passport.Record) string {
	country := rec.Value(constants.FieldCountry)
	if geodata.IsKnownCode(country) {
		rec.SetCertain(constants.FieldCountry, country, true)
		return country
	}
	rec.SetCertain(constants.FieldCountry, country, false)
	if code, ok := geodata.CodeForCountry(titleCaser.String(strings.ToLower(country))); ok {
		rec.SetCertain(constants.FieldCountry, code, true)
		return code
	}
	return country
}

// compactName strips punctuation, transliterates, uppercases and removes all
// spaces so two spellings of a name can be compared directly.
func compactName(s string) string {
	// transliterate before stripping punctuation: accented letters are not
	// ASCII word characters and would be stripped as punctuation
	s = textutil.StripPunctuation(textutil.Transliterate(s))
	return strings.ReplaceAll(strings.ToUpper(s), " ", "")
}

// crossValidateNames reconciles the visually read name fields with the MRZ
// readings. For LKA/IND/MDG the MRZ only wins when it is at least as long as
// the visual value (those documents truncate visual names); UZB MRZ names
// are unreliable and skipped entirely. A garbled line 1 disables the pass.
func crossValidateNames(rec passport.Record, country string) {
	line1 := rec.Value(constants.FieldMRZLine1)
	mrzSurname := rec.Value(constants.FieldMRZSurname)
	mrzName := rec.Value(constants.FieldMRZName)

	if passport.LooksGarbledLine1(line1) {
		return
	}
	if mrzSurname == "" && mrzName == "" {
		return
	}
	if country == "UZB" {
		return
	}
	lengthGuard := country == "LKA" || country == "IND" || country == "MDG"

	reconcile := func(mainField, shadowField, mrzVal string) {
		if mrzVal == "" {
			return
		}
		visual := rec.Value(mainField)
		cleanMRZ := compactName(mrzVal)
		cleanVisual := compactName(visual)
		if cleanMRZ == cleanVisual {
			return
		}
		if lengthGuard && len(cleanMRZ) < len(cleanVisual) {
			return
		}
		// disagreement: trust whichever side still has its certainty flag,
		// but the merged value is uncertain either way
		if rec.Certain(shadowField) || !rec.Certain(mainField) {
			rec.SetCertain(mainField, mrzVal, false)
		} else {
			rec.SetCertain(mainField, visual, false)
		}
	}

	reconcile(constants.FieldSurname, constants.FieldMRZSurname, mrzSurname)
	reconcile(constants.FieldName, constants.FieldMRZName, mrzName)
}

// stripCountryPrefixFromSurname removes a nationality code the OCR glued to
// the front of the surname, unless the MRZ legitimately repeats the code
// (issuing state followed by nationality).
func stripCountryPrefixFromSurname(rec passport.Record, country string) {
	if country == "" {
		return
	}
	surname := rec.Value(constants.FieldSurname)
	line1 := rec.Value(constants.FieldMRZLine1)
	if strings.HasPrefix(surname, country) && !strings.Contains(line1, country+country) {
		rec.SetCertain(constants.FieldSurname, strings.TrimSpace(surname[len(country):]), false)
	}
}

// recoverNumberFromMRZ replaces the visual document number with the MRZ
// line-2 number when the embedded check digit validates and the two disagree.
func recoverNumberFromMRZ(rec passport.Record) {
	line2 := rec.Value(constants.FieldMRZLine2)
	if len(line2) < 10 {
		return
	}
	docNumber := strings.TrimSpace(strings.ReplaceAll(line2[:9], "<", ""))
	check := line2[9]
	if docNumber == "" || check < '0' || check > '9' {
		return
	}
	padded := docNumber + strings.Repeat("<", 9-len(docNumber))
	if passport.CheckDigit(padded) == int(check-'0') && docNumber != rec.Value(constants.FieldNumber) {
		rec.SetCertain(constants.FieldNumber, docNumber, false)
	}
}

func normalizeDates(rec passport.Record, now time.Time) {
	for _, field := range []string{constants.FieldIssueDate, constants.FieldBirthDate, constants.FieldExpiryDate} {
		raw := rec.Value(field)
		if normalized, ok := NormalizeDate(raw, field, now); ok {
			rec.SetCertain(field, normalized, true)
		} else {
			rec.SetCertain(field, raw, false)
		}
	}
}

func applyMRZGender(rec passport.Record) {
	g := rec.Value(constants.FieldMRZGender)
	if g == "M" || g == "F" {
		rec.SetCertain(constants.FieldGender, g, true)
	}
}

// deriveCountryOfIssue fills country of issue from the issuing place via the
// city table. Uganda's records keep the matched city as the place of issue.
func deriveCountryOfIssue(rec passport.Record, country string) {
	place := rec.Value(constants.FieldPlaceOfIssue)
	if place == "" {
		return
	}
	derived, city, ok := geodata.CountryForCity(place)
	if !ok {
		return
	}
	rec.SetCertain(constants.FieldCountryOfIssue, derived, rec.Certain(constants.FieldPlaceOfIssue))
	if country == "UGA" {
		rec.SetCertain(constants.FieldPlaceOfIssue, city, true)
	}
}

// cleanPlaceOfBirth strips a trailing nationality code; a bare 3-letter code
// expands to the full country name.
func cleanPlaceOfBirth(rec passport.Record, country string) {
	if country == "" {
		return
	}
	place := rec.Value(constants.FieldPlaceOfBirth)
	if !strings.HasSuffix(place, country) {
		return
	}
	if len(place) > 3 && strings.HasSuffix(place, " "+country) {
		rec.SetCertain(constants.FieldPlaceOfBirth, place[:len(place)-4], true)
	} else if len(place) == 3 {
		if name, ok := geodata.CountryForCode(country); ok {
			rec.SetCertain(constants.FieldPlaceOfBirth, strings.ToUpper(name), true)
		}
	}
}

// canonicalizeCountryOfIssue snaps the free-form country of issue onto a
// canonical country name: partial-ratio match against the table first, then
// a fuzzy full-name lookup.
func canonicalizeCountryOfIssue(rec passport.Record) {
	value := rec.Value(constants.FieldCountryOfIssue)
	if value == "" {
		return
	}
	for _, canonical := range geodata.CountryNames() {
		upper := strings.ToUpper(canonical)
		if textutil.PartialRatio(value, upper) >= 90 {
			rec.SetCertain(constants.FieldCountryOfIssue, upper, true)
			return
		}
	}
	if name := geodata.FuzzyCountryName(value, 60); name != "" {
		rec.SetCertain(constants.FieldCountryOfIssue, strings.ToUpper(name), true)
	}
}

// formatStringFields runs the final cleanup over every plain string field:
// sentinel removal, punctuation strip, transliteration, whitespace collapse,
// upper-case.
func formatStringFields(rec passport.Record) {
	for _, field := range constants.StringFields {
		if _, ok := rec[field]; !ok {
			continue
		}
		value := strings.ToUpper(rec.Value(field))
		value = textutil.Transliterate(value)
		value = textutil.StripPunctuation(value)
		value = textutil.CollapseWhitespace(value)
		rec.Set(field, value)
	}
}

// confirmKnownBirthPlace marks the place of birth certain when it appears in
// the curated list.
func confirmKnownBirthPlace(rec passport.Record) {
	place := rec.Value(constants.FieldPlaceOfBirth)
	if place != "" && geodata.IsKnownBirthPlace(place) {
		rec.SetCertain(constants.FieldPlaceOfBirth, place, true)
	}
}
