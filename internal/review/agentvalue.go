package review

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/passport-tracker/internal/geodata"
)

// agentDateLayouts covers the date formats agents type into the review sheet.
var agentDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"2-1-2006",
}

// EditAgentValue normalizes a reviewed value so it compares cleanly against
// the pipeline's output for the same field. datasetCountry is the human name
// of the dataset being processed ("India", "Kenya", ...), which drives the
// parent-name special cases.
func EditAgentValue(value, field, datasetCountry string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	fieldKey := strings.ToUpper(strings.TrimSpace(field))

	// dashed dates come from Excel's ISO formatting
	if strings.Contains(value, "-") {
		for _, layout := range agentDateLayouts {
			if dt, err := time.Parse(layout, value); err == nil {
				return dt.Format("02/01/2006")
			}
		}
	}

	switch fieldKey {
	case "NATIONALITY":
		return geodata.FuzzyCode(value)
	case "MOTHER NAME":
		if datasetCountry != "India" {
			return ""
		}
		if fields := strings.Fields(value); len(fields) > 0 {
			return fields[0]
		}
		return ""
	case "FATHER NAME":
		if datasetCountry != "India" {
			return ""
		}
		return value
	case "GENDER":
		if value == "" {
			return ""
		}
		return value[:1]
	}
	return value
}
