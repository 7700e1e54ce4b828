// Package rules applies per-country validation and correction heuristics to
// a mapped passport record: document-number format checks with OCR digit
// fixups, fixed issuing-authority overrides, clearing of fields a country's
// passports never carry, and name-field reassignment.
package rules

import (
	"strings"

	"github.com/joseph-ayodele/passport-tracker/constants"
	"github.com/joseph-ayodele/passport-tracker/internal/passport"
	"github.com/joseph-ayodele/passport-tracker/internal/textutil"
)

// RuleFunc mutates a record in place for one issuing country.
type RuleFunc func(rec passport.Record)

// registry is keyed by ISO-3166 alpha-3 nationality code.
var registry = map[string]RuleFunc{
	"PHL": philippines,
	"ETH": ethiopia,
	"KEN": kenya,
	"NPL": nepal,
	"LKA": sriLanka,
	"UGA": uganda,
	"IND": india,
	"UZB": uzbekistan,
	"RUS": russia,
	"UKR": ukraine,
	"KGZ": kyrgyzstan,
	"SEN": senegal,
	"ESP": spain,
	"GBR": unitedKingdom,
	"ZWE": zimbabwe,
	"LBN": lebanon,
	"MAR": morocco,
	"PAK": pakistan,
	"IRQ": iraq,
	"MMR": myanmar,
}

// Apply runs the rule set for the given nationality code. Unknown codes are
// a no-op.
func Apply(rec passport.Record, countryCode string) {
	if fn, ok := registry[countryCode]; ok {
		fn(rec)
	}
}

// HasRules reports whether a bespoke rule set exists for the code.
func HasRules(countryCode string) bool {
	_, ok := registry[countryCode]
	return ok
}

// combineProb merges the recognizer's extraction probability with the
// format-validation probability: the weaker signal wins when both exist.
func combineProb(extraction, validation float64) float64 {
	if extraction > 0 {
		return min(extraction, validation)
	}
	return validation
}

// setNumber runs a number-processing func and stores the result with the
// combined probability.
func setNumber(rec passport.Record, process func(string) (string, float64)) {
	number := rec.Value(constants.FieldNumber)
	extraction := rec.Probability(constants.FieldNumber)
	processed, validation := process(number)
	rec.SetProb(constants.FieldNumber, processed, combineProb(extraction, validation))
}

// truncateNumber trims an over-long number to nine characters and discounts
// the probability when the value changed.
func truncateNumber(rec passport.Record, correctFrom, correctTo int) {
	number := rec.Value(constants.FieldNumber)
	extraction := rec.Probability(constants.FieldNumber)

	processed := number
	if len(processed) > 9 {
		processed = processed[:9]
	}
	if correctTo > correctFrom {
		processed = CorrectDigitSection(processed, correctFrom, correctTo)
	}

	prob := extraction
	if processed != number {
		prob = max(0.7, extraction*0.8)
		if extraction <= 0 {
			prob = 0.7
		}
	}
	rec.SetProb(constants.FieldNumber, processed, prob)
}

func clearFields(rec passport.Record, fields ...string) {
	for _, f := range fields {
		rec.SetProb(f, "", 1.0)
	}
}

func overrideField(rec passport.Record, field, value string) {
	rec.SetProb(field, value, 1.0)
}

// reassignNames moves surname into middle name and father name into surname,
// the layout used on Indian and Pakistani passports.
func reassignNames(rec passport.Record) {
	surname := rec[constants.FieldSurname]
	father := rec[constants.FieldFatherName]

	rec.SetProb(constants.FieldMiddleName, surname.Value, surname.Probability)
	rec.SetProb(constants.FieldSurname, father.Value, father.Probability)
}

func philippines(rec passport.Record) {
	setNumber(rec, func(number string) (string, float64) {
		number = strings.ToUpper(strings.TrimSpace(number))
		if number == "" {
			return "", 0.0
		}
		if len(number) < 9 {
			return number, 0.3
		}
		if len(number) > 9 {
			return number[:9], 0.5
		}
		number = CorrectDigitSection(number, 1, 8)

		// last character is a letter check: A/B/C are the only valid
		// series; 8 and 0 are the usual misreads of B and C
		switch number[8] {
		case 'A', 'B', 'C':
			return number, 1.0
		case '8':
			return number[:8] + "B", 0.8
		case '0':
			return number[:8] + "C", 0.8
		default:
			return number, 0.3
		}
	})

	clearFields(rec, constants.FieldMotherName, constants.FieldFatherName)
}

func ethiopia(rec passport.Record) {
	setNumber(rec, func(number string) (string, float64) {
		number = strings.ToUpper(strings.TrimSpace(number))
		if number == "" {
			return "", 0.0
		}
		if len(number) < 9 {
			return number, 0.3
		}
		if !strings.HasPrefix(number, "EQ") && !strings.HasPrefix(number, "EP") {
			return number, 0.2
		}
		number = CorrectDigitSection(number, 2, 9)
		if !isDigits(number[2:]) {
			return number, 0.4
		}
		return number, 1.0
	})

	overrideField(rec, constants.FieldPlaceOfIssue, "ETHIOPIA")
	overrideField(rec, constants.FieldCountryOfIssue, "ETHIOPIA")
	clearFields(rec, constants.FieldMotherName, constants.FieldFatherName)
}

func kenya(rec passport.Record) {
	setNumber(rec, func(number string) (string, float64) {
		number = strings.ToUpper(strings.TrimSpace(number))
		if number == "" {
			return "", 0.0
		}
		if len(number) < 9 {
			return number, 0.3
		}
		if len(number) > 9 {
			return number[:9], 0.5
		}
		if !strings.HasPrefix(number, "AK") && !strings.HasPrefix(number, "BK") && !strings.HasPrefix(number, "CK") {
			return number, 0.2
		}
		number = CorrectDigitSection(number, 2, 8)
		if !isDigits(number[2:]) {
			return number, 0.4
		}
		return number, 1.0
	})

	place := rec.Value(constants.FieldPlaceOfIssue)
	switch {
	case place == "":
		rec.SetProb(constants.FieldPlaceOfIssue, "", 0.0)
	case textutil.PartialRatio(place, "GOVERNMENT OF KENYA") >= 90:
		overrideField(rec, constants.FieldPlaceOfIssue, "GOVERNMENT OF KENYA")
	case textutil.PartialRatio(place, "REGISTRAR GENERAL HRE") >= 90:
		overrideField(rec, constants.FieldPlaceOfIssue, "REGISTRAR GENERAL HRE")
	}

	overrideField(rec, constants.FieldCountryOfIssue, "KENYA")
	clearFields(rec, constants.FieldMotherName, constants.FieldFatherName, constants.FieldMiddleName)
}

func nepal(rec passport.Record) {
	place := rec.Value(constants.FieldPlaceOfIssue)
	if place != "" && textutil.PartialRatio(place, "MOFA DEPARTMENT OF PASSPORTS") >= 80 {
		overrideField(rec, constants.FieldPlaceOfIssue, "MOFA")
		overrideField(rec, constants.FieldCountryOfIssue, "NEPAL")
	}

	truncateNumber(rec, 2, 9)
	clearFields(rec, constants.FieldMiddleName, constants.FieldMotherName, constants.FieldFatherName)
}

func sriLanka(rec passport.Record) {
	place := rec.Value(constants.FieldPlaceOfIssue)
	if place != "" && textutil.PartialRatio(place, "AUTHORITY COLOMBO") >= 90 {
		overrideField(rec, constants.FieldPlaceOfIssue, "COLOMBO")
		overrideField(rec, constants.FieldCountryOfIssue, "SRI LANKA")
	}

	truncateNumber(rec, 0, 0)
	clearFields(rec, constants.FieldMiddleName, constants.FieldMotherName, constants.FieldFatherName)
}

func uganda(rec passport.Record) {
	clearFields(rec, constants.FieldMiddleName, constants.FieldMotherName, constants.FieldFatherName)
}

func india(rec passport.Record) {
	truncateNumber(rec, 0, 0)

	// review data keeps only the mother's first name
	if mother := rec.Value(constants.FieldMotherName); mother != "" {
		first := strings.Fields(mother)[0]
		rec.SetProb(constants.FieldMotherName, first, rec.Probability(constants.FieldMotherName))
	}

	reassignNames(rec)
}

func uzbekistan(rec passport.Record) {
	overrideField(rec, constants.FieldPlaceOfIssue, "UZBEKISTAN")
	overrideField(rec, constants.FieldCountryOfIssue, "UZBEKISTAN")
}

func russia(rec passport.Record) {
	overrideField(rec, constants.FieldPlaceOfBirth, "RUSSIA")
	overrideField(rec, constants.FieldPlaceOfIssue, "RUSSIA")
	overrideField(rec, constants.FieldCountryOfIssue, "RUSSIA")
}

func ukraine(rec passport.Record) {
	overrideField(rec, constants.FieldPlaceOfIssue, "UKRAINE")
	overrideField(rec, constants.FieldCountryOfIssue, "UKRAINE")
}

func kyrgyzstan(rec passport.Record) {
	overrideField(rec, constants.FieldPlaceOfIssue, "KYRGYZSTAN")
	overrideField(rec, constants.FieldCountryOfIssue, "KYRGYZSTAN")
}

func senegal(rec passport.Record) {
	overrideField(rec, constants.FieldPlaceOfIssue, "SENEGAL")
	overrideField(rec, constants.FieldCountryOfIssue, "SENEGAL")
}

func spain(rec passport.Record) {
	overrideField(rec, constants.FieldPlaceOfIssue, "SPAIN")
	overrideField(rec, constants.FieldCountryOfIssue, "SPAIN")
}

func unitedKingdom(rec passport.Record) {
	overrideField(rec, constants.FieldCountryOfIssue, "UNITED KINGDOM")
}

func zimbabwe(rec passport.Record) {
	overrideField(rec, constants.FieldPlaceOfIssue, "REGISTRAR GENERAL HRE")
	overrideField(rec, constants.FieldCountryOfIssue, "ZIMBABWE")
}

func lebanon(rec passport.Record) {
	overrideField(rec, constants.FieldPlaceOfIssue, "GDGS")
	overrideField(rec, constants.FieldCountryOfIssue, "LEBANON")
}

func morocco(rec passport.Record) {
	if birth := rec.Value(constants.FieldPlaceOfBirth); strings.HasSuffix(birth, "MAROC") && len(birth) >= 6 {
		rec.SetProb(constants.FieldPlaceOfBirth, strings.TrimSpace(birth[:len(birth)-6]),
			rec.Probability(constants.FieldPlaceOfBirth))
	}
	// issuing place is printed as "PREFECTURE DE <CITY>"
	if place := rec.Value(constants.FieldPlaceOfIssue); strings.Contains(place, "DE") {
		city := strings.TrimSpace(strings.SplitN(place, "DE", 2)[1])
		rec.SetProb(constants.FieldPlaceOfIssue, city, rec.Probability(constants.FieldPlaceOfIssue))
	}
}

func pakistan(rec passport.Record) {
	// father name prints as "SURNAME, GIVEN"; flip it
	if father := rec.Value(constants.FieldFatherName); strings.Contains(father, ", ") {
		parts := strings.SplitN(father, ", ", 2)
		rec.SetProb(constants.FieldFatherName, parts[1]+" "+parts[0],
			rec.Probability(constants.FieldFatherName))
	}
	reassignNames(rec)
}

func iraq(rec passport.Record) {
	surname := rec.Value(constants.FieldSurname)
	name := rec.Value(constants.FieldName)
	if surname != "" && strings.HasSuffix(name, surname) {
		rec.SetProb(constants.FieldName, strings.TrimSpace(name[:len(name)-len(surname)]),
			rec.Probability(constants.FieldName))
	}
}

func myanmar(rec passport.Record) {
	clearFields(rec, constants.FieldMiddleName)

	// the full name usually lands in one field; split the last token off as
	// the surname, trying the MRZ reading first
	full := rec.Value(constants.FieldMRZSurname)
	if full == "" {
		full = rec.Value(constants.FieldSurname)
	}
	if full == "" {
		full = rec.Value(constants.FieldName)
	}
	parts := strings.Fields(full)
	if len(parts) > 1 {
		nameProb := rec.Probability(constants.FieldName)
		surnameProb := rec.Probability(constants.FieldSurname)
		rec.SetProb(constants.FieldSurname, parts[len(parts)-1], surnameProb)
		rec.SetProb(constants.FieldName, strings.Join(parts[:len(parts)-1], " "), nameProb)
	}
}
