package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/passport-tracker/constants"
	"github.com/joseph-ayodele/passport-tracker/internal/passport"
)

func record(fields map[string]passport.Field) passport.Record {
	rec := passport.Record{}
	for k, v := range fields {
		rec[k] = v
	}
	return rec
}

func TestHasRules(t *testing.T) {
	assert.True(t, HasRules("PHL"))
	assert.True(t, HasRules("MMR"))
	assert.False(t, HasRules("DEU"))
	assert.False(t, HasRules(""))
}

func TestApplyUnknownCodeIsNoop(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldNumber: {Value: "X1234567", Probability: 0.9},
	})
	Apply(rec, "DEU")
	assert.Equal(t, "X1234567", rec.Value(constants.FieldNumber))
	assert.Equal(t, 0.9, rec.Probability(constants.FieldNumber))
}

func TestPhilippines(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		want     string
		wantProb float64
	}{
		{"valid series A", "P1234567A", "P1234567A", 0.9},
		{"digit misreads in middle", "PI23456OB", "P1234560B", 0.9},
		{"eight corrected to B", "P12345678", "P1234567B", 0.8},
		{"zero corrected to C", "P12345670", "P1234567C", 0.8},
		{"bad final letter", "P1234567X", "P1234567X", 0.3},
		{"too short", "P123", "P123", 0.3},
		{"too long", "P1234567AB", "P1234567A", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(map[string]passport.Field{
				constants.FieldNumber:     {Value: tt.number, Probability: 0.9},
				constants.FieldMotherName: {Value: "MARIA", Probability: 0.8},
				constants.FieldFatherName: {Value: "JOSE", Probability: 0.8},
			})
			Apply(rec, "PHL")

			assert.Equal(t, tt.want, rec.Value(constants.FieldNumber))
			assert.Equal(t, tt.wantProb, rec.Probability(constants.FieldNumber))

			// Philippine passports carry no parent names
			assert.Empty(t, rec.Value(constants.FieldMotherName))
			assert.Empty(t, rec.Value(constants.FieldFatherName))
		})
	}
}

func TestPhilippinesEmptyNumber(t *testing.T) {
	rec := record(map[string]passport.Field{})
	Apply(rec, "PHL")
	assert.Empty(t, rec.Value(constants.FieldNumber))
	assert.Zero(t, rec.Probability(constants.FieldNumber))
}

func TestEthiopia(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldNumber:       {Value: "EQI23456G", Probability: 0.95},
		constants.FieldPlaceOfIssue: {Value: "MAIN DEPARTMENT", Probability: 0.6},
	})
	Apply(rec, "ETH")

	assert.Equal(t, "EQ1234566", rec.Value(constants.FieldNumber))
	assert.Equal(t, 0.95, rec.Probability(constants.FieldNumber))
	assert.Equal(t, "ETHIOPIA", rec.Value(constants.FieldPlaceOfIssue))
	assert.Equal(t, "ETHIOPIA", rec.Value(constants.FieldCountryOfIssue))
}

func TestEthiopiaBadPrefix(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldNumber: {Value: "XX1234567", Probability: 0.95},
	})
	Apply(rec, "ETH")
	assert.Equal(t, "XX1234567", rec.Value(constants.FieldNumber))
	assert.Equal(t, 0.2, rec.Probability(constants.FieldNumber))
}

func TestKenya(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldNumber:       {Value: "AKI23456S", Probability: 0.9},
		constants.FieldPlaceOfIssue: {Value: "GOVERNMENT OF KENIA", Probability: 0.7},
		constants.FieldMiddleName:   {Value: "WANJIKU", Probability: 0.7},
	})
	Apply(rec, "KEN")

	// the digit section ends before the final letter
	assert.Equal(t, "AK123456S", rec.Value(constants.FieldNumber))
	assert.Equal(t, "GOVERNMENT OF KENYA", rec.Value(constants.FieldPlaceOfIssue))
	assert.Equal(t, "KENYA", rec.Value(constants.FieldCountryOfIssue))
	assert.Empty(t, rec.Value(constants.FieldMiddleName))
}

func TestNepal(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldNumber:       {Value: "PA0123456789", Probability: 0.9},
		constants.FieldPlaceOfIssue: {Value: "MOFA DEPARTMENT OF PASSPORT", Probability: 0.8},
	})
	Apply(rec, "NPL")

	assert.Equal(t, "PA0123456", rec.Value(constants.FieldNumber))
	// truncation discounts the probability
	assert.InDelta(t, 0.72, rec.Probability(constants.FieldNumber), 1e-9)
	assert.Equal(t, "MOFA", rec.Value(constants.FieldPlaceOfIssue))
	assert.Equal(t, "NEPAL", rec.Value(constants.FieldCountryOfIssue))
}

func TestSriLanka(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldNumber:       {Value: "N1234567", Probability: 0.9},
		constants.FieldPlaceOfIssue: {Value: "AUTHORITY COLOMBO", Probability: 0.8},
	})
	Apply(rec, "LKA")

	// nine characters or fewer pass through untouched
	assert.Equal(t, "N1234567", rec.Value(constants.FieldNumber))
	assert.Equal(t, 0.9, rec.Probability(constants.FieldNumber))
	assert.Equal(t, "COLOMBO", rec.Value(constants.FieldPlaceOfIssue))
	assert.Equal(t, "SRI LANKA", rec.Value(constants.FieldCountryOfIssue))
}

func TestIndia(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldSurname:    {Value: "KUMAR", Probability: 0.9},
		constants.FieldFatherName: {Value: "SINGH", Probability: 0.8},
		constants.FieldMotherName: {Value: "PRIYA DEVI", Probability: 0.85},
	})
	Apply(rec, "IND")

	// surname becomes the middle name, father name becomes the surname
	assert.Equal(t, "KUMAR", rec.Value(constants.FieldMiddleName))
	assert.Equal(t, 0.9, rec.Probability(constants.FieldMiddleName))
	assert.Equal(t, "SINGH", rec.Value(constants.FieldSurname))
	assert.Equal(t, 0.8, rec.Probability(constants.FieldSurname))

	// only the mother's first name is kept
	assert.Equal(t, "PRIYA", rec.Value(constants.FieldMotherName))
}

func TestFixedOverrides(t *testing.T) {
	tests := []struct {
		code      string
		wantPlace string
		wantCoI   string
	}{
		{"UZB", "UZBEKISTAN", "UZBEKISTAN"},
		{"RUS", "RUSSIA", "RUSSIA"},
		{"UKR", "UKRAINE", "UKRAINE"},
		{"KGZ", "KYRGYZSTAN", "KYRGYZSTAN"},
		{"SEN", "SENEGAL", "SENEGAL"},
		{"ESP", "SPAIN", "SPAIN"},
		{"ZWE", "REGISTRAR GENERAL HRE", "ZIMBABWE"},
		{"LBN", "GDGS", "LEBANON"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := record(map[string]passport.Field{
				constants.FieldPlaceOfIssue: {Value: "WHATEVER OCR SAW", Probability: 0.4},
			})
			Apply(rec, tt.code)

			assert.Equal(t, tt.wantPlace, rec.Value(constants.FieldPlaceOfIssue))
			assert.Equal(t, 1.0, rec.Probability(constants.FieldPlaceOfIssue))
			assert.Equal(t, tt.wantCoI, rec.Value(constants.FieldCountryOfIssue))
		})
	}
}

func TestUnitedKingdomKeepsPlaceOfIssue(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldPlaceOfIssue: {Value: "HMPO", Probability: 0.9},
	})
	Apply(rec, "GBR")

	assert.Equal(t, "HMPO", rec.Value(constants.FieldPlaceOfIssue))
	assert.Equal(t, "UNITED KINGDOM", rec.Value(constants.FieldCountryOfIssue))
}

func TestRussiaOverridesBirthPlace(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldPlaceOfBirth: {Value: "MOSKVA", Probability: 0.5},
	})
	Apply(rec, "RUS")
	assert.Equal(t, "RUSSIA", rec.Value(constants.FieldPlaceOfBirth))
}

func TestMorocco(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldPlaceOfBirth: {Value: "CASABLANCA MAROC", Probability: 0.8},
		constants.FieldPlaceOfIssue: {Value: "PREFECTURE DE RABAT", Probability: 0.7},
	})
	Apply(rec, "MAR")

	assert.Equal(t, "CASABLANCA", rec.Value(constants.FieldPlaceOfBirth))
	assert.Equal(t, "RABAT", rec.Value(constants.FieldPlaceOfIssue))
}

func TestPakistan(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldSurname:    {Value: "AHMED", Probability: 0.9},
		constants.FieldFatherName: {Value: "KHAN, MUHAMMAD", Probability: 0.8},
	})
	Apply(rec, "PAK")

	// "SURNAME, GIVEN" flips before the reassignment
	assert.Equal(t, "MUHAMMAD KHAN", rec.Value(constants.FieldSurname))
	assert.Equal(t, "AHMED", rec.Value(constants.FieldMiddleName))
}

func TestIraq(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldName:    {Value: "ALI HASSAN AL JABBAR", Probability: 0.9},
		constants.FieldSurname: {Value: "AL JABBAR", Probability: 0.85},
	})
	Apply(rec, "IRQ")

	assert.Equal(t, "ALI HASSAN", rec.Value(constants.FieldName))
	assert.Equal(t, "AL JABBAR", rec.Value(constants.FieldSurname))
}

func TestIraqNoSuffixMatch(t *testing.T) {
	rec := record(map[string]passport.Field{
		constants.FieldName:    {Value: "ALI HASSAN", Probability: 0.9},
		constants.FieldSurname: {Value: "JABBAR", Probability: 0.85},
	})
	Apply(rec, "IRQ")
	assert.Equal(t, "ALI HASSAN", rec.Value(constants.FieldName))
}

func TestMyanmar(t *testing.T) {
	t.Run("splits full name from mrz reading", func(t *testing.T) {
		rec := record(map[string]passport.Field{
			constants.FieldMRZSurname: {Value: "AUNG KYAW MIN", Probability: 0.9},
			constants.FieldSurname:    {Value: "AUNG KYAW MIN", Probability: 0.8},
			constants.FieldMiddleName: {Value: "STRAY", Probability: 0.5},
		})
		Apply(rec, "MMR")

		assert.Equal(t, "MIN", rec.Value(constants.FieldSurname))
		assert.Equal(t, "AUNG KYAW", rec.Value(constants.FieldName))
		assert.Empty(t, rec.Value(constants.FieldMiddleName))
	})

	t.Run("single token left alone", func(t *testing.T) {
		rec := record(map[string]passport.Field{
			constants.FieldSurname: {Value: "AUNG", Probability: 0.8},
		})
		Apply(rec, "MMR")
		assert.Equal(t, "AUNG", rec.Value(constants.FieldSurname))
		assert.Empty(t, rec.Value(constants.FieldName))
	})
}
