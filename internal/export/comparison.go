// Package export joins checkpointed extraction results with the consolidated
// human-review rows and pushes the resulting comparison table to a shared
// spreadsheet.
package export

import (
	"strconv"

	"github.com/joseph-ayodele/passport-tracker/constants"
	"github.com/joseph-ayodele/passport-tracker/internal/checkpoint"
	"github.com/joseph-ayodele/passport-tracker/internal/review"
)

// reviewFieldToOutput maps the review sheet's field labels onto canonical
// output fields.
var reviewFieldToOutput = map[string]string{
	"Birth Place":          constants.FieldPlaceOfBirth,
	"Birthdate":            constants.FieldBirthDate,
	"Country of Issue":     constants.FieldCountryOfIssue,
	"First Name":           constants.FieldName,
	"Gender":               constants.FieldGender,
	"Last Name":            constants.FieldSurname,
	"Middle Name":          constants.FieldMiddleName,
	"Mother Name":          constants.FieldMotherName,
	"Nationality":          constants.FieldCountry,
	"Passport Expiry Date": constants.FieldExpiryDate,
	"Passport Issue Date":  constants.FieldIssueDate,
	"Passport Place(EN)":   constants.FieldPlaceOfIssue,
	"Passport ID":          constants.FieldNumber,
}

// ComparisonRow is one line of the uploaded table: what the agent decided
// the field should be versus what the pipeline extracted.
type ComparisonRow struct {
	ApplicantID      string
	ModifiedField    string
	EditedAgentValue string
	ExtractedValue   string
	Match            bool
	Certain          bool
	AgentValue       string
	OCRValue         string
	Nationality      string
}

// Headers is the uploaded table's header row.
var Headers = []string{
	"Applicant ID",
	"Modified Field",
	"Edited Agent Value",
	"Extracted Value",
	"Match",
	"Extracted Certainty",
	"Agent Value",
	"OCR Value",
	"Nationality",
}

// BuildComparison produces one comparison row per reviewed correction.
// Review rows without an applicant ID are dropped; unmapped field labels
// yield empty extraction columns, mirroring a missing result.
func BuildComparison(results []checkpoint.Row, reviews []review.Row, datasetCountry string) []ComparisonRow {
	byApplicant := make(map[string]checkpoint.Row, len(results))
	for _, r := range results {
		byApplicant[r.ApplicantID] = r
	}

	out := make([]ComparisonRow, 0, len(reviews))
	for _, rev := range reviews {
		if rev.ApplicantID == "" {
			continue
		}
		row := ComparisonRow{
			ApplicantID:   rev.ApplicantID,
			ModifiedField: rev.ModifiedField,
			AgentValue:    rev.AgentValue,
			OCRValue:      rev.OCRValue,
			Nationality:   rev.Nationality,
		}

		field, mapped := reviewFieldToOutput[rev.ModifiedField]
		res, found := byApplicant[rev.ApplicantID]
		if mapped && found {
			row.ExtractedValue = res.Outputs[field]
			// a country rule may blank the number; compare the raw reading then
			if row.ExtractedValue == "" && field == constants.FieldNumber {
				row.ExtractedValue = res.OriginalNumber
			}
			row.Certain = res.Certainty[field]
		}

		row.EditedAgentValue = review.EditAgentValue(rev.AgentValue, rev.ModifiedField, datasetCountry)
		row.Match = row.ExtractedValue == row.EditedAgentValue
		out = append(out, row)
	}
	return out
}

// ToValues renders the table as string cells for the sheet, header included.
func ToValues(rows []ComparisonRow) [][]string {
	values := [][]string{Headers}
	for _, r := range rows {
		values = append(values, []string{
			r.ApplicantID,
			r.ModifiedField,
			r.EditedAgentValue,
			r.ExtractedValue,
			strconv.FormatBool(r.Match),
			strconv.FormatBool(r.Certain),
			r.AgentValue,
			r.OCRValue,
			r.Nationality,
		})
	}
	return values
}
