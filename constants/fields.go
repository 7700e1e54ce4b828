package constants

// Canonical field names for a passport record. These exact strings are used
// as checkpoint CSV column suffixes and as keys everywhere downstream of the
// field mapper, so they must stay stable.
const (
	FieldNumber         = "number"
	FieldCountry        = "country"
	FieldName           = "name"
	FieldSurname        = "surname"
	FieldMiddleName     = "middle name"
	FieldGender         = "gender"
	FieldPlaceOfBirth   = "place of birth"
	FieldBirthDate      = "birth date"
	FieldIssueDate      = "issue date"
	FieldExpiryDate     = "expiry date"
	FieldMotherName     = "mother name"
	FieldFatherName     = "father name"
	FieldSpouseName     = "spouse name"
	FieldPlaceOfIssue   = "place of issue"
	FieldCountryOfIssue = "country of issue"
	FieldMRZLine1       = "mrzLine1"
	FieldMRZLine2       = "mrzLine2"
)

// Shadow fields populated from the machine-readable zone, kept separate from
// the visually-read values so the postprocessor can cross-validate them.
const (
	FieldMRZSurname = "mrz_surname"
	FieldMRZName    = "mrz_name"
	FieldMRZGender  = "mrz_gender"
)

// OutputFields is the ordered canonical field set exported per applicant.
var OutputFields = []string{
	FieldNumber,
	FieldCountry,
	FieldName,
	FieldSurname,
	FieldMiddleName,
	FieldGender,
	FieldPlaceOfBirth,
	FieldBirthDate,
	FieldIssueDate,
	FieldExpiryDate,
	FieldMotherName,
	FieldFatherName,
	FieldSpouseName,
	FieldPlaceOfIssue,
	FieldCountryOfIssue,
	FieldMRZLine1,
	FieldMRZLine2,
}

// StringFields lists the fields that go through final string cleanup
// (transliteration, punctuation strip, whitespace collapse). Dates and MRZ
// lines are excluded: dates have their own formatting and MRZ lines must
// keep the '<' filler.
var StringFields = []string{
	FieldNumber,
	FieldCountry,
	FieldName,
	FieldSurname,
	FieldMiddleName,
	FieldGender,
	FieldPlaceOfBirth,
	FieldMotherName,
	FieldFatherName,
	FieldPlaceOfIssue,
	FieldCountryOfIssue,
	FieldMRZSurname,
	FieldMRZName,
	FieldMRZGender,
}
