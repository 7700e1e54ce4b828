package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/passport-tracker/constants"
	"github.com/joseph-ayodele/passport-tracker/internal/textutil"
)

// Passport dates normalize to this layout.
const dateLayout = "02/01/2006"

// ddMonYear matches "15 JUN 23", "15/JUN/2023" and the bilingual
// "15 JUN JUIN 23" form, capturing day, month, optional second month token
// and year.
var ddMonYear = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?:\s+|/)(\w+)\s*(?:\s*|/)\s*(\w*)(?:\s+|/)(\d{2,4})\s*$`)

// fallbackLayouts are tried day-first when the month-name form fails.
var fallbackLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
	"02/01/06",
	"2 January 2006",
	"2 Jan 2006",
}

// expandYear expands a two-digit year by field: expiry and issue dates start
// in the 2000s (the sanity pass fixes overshoots), birth dates pivot on the
// current year.
func expandYear(yy int, field string, now time.Time) int {
	pivot := now.Year() % 100
	switch {
	case yy > 1000:
		return yy
	case field == constants.FieldExpiryDate || field == constants.FieldIssueDate:
		return 2000 + yy
	case yy > pivot:
		return 1900 + yy
	default:
		return 2000 + yy
	}
}

func parseDayMonthName(raw, field string, now time.Time) (time.Time, bool) {
	m := ddMonYear.FindStringSubmatch(textutil.Transliterate(raw))
	if m == nil {
		return time.Time{}, false
	}
	day, mon, mon2, yearStr := m[1], m[2], m[3], m[4]
	yy, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	year := expandYear(yy, field, now)

	for _, month := range []string{mon, mon2} {
		if month == "" {
			continue
		}
		s := day + " " + titleCase(month) + " " + strconv.Itoa(year)
		for _, layout := range []string{"2 Jan 2006", "2 January 2006"} {
			if dt, err := time.Parse(layout, s); err == nil {
				return dt, true
			}
		}
	}
	return time.Time{}, false
}

func titleCase(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func parseFallback(raw string) (time.Time, bool) {
	raw = textutil.CollapseWhitespace(raw)
	for _, layout := range fallbackLayouts {
		if dt, err := time.Parse(layout, raw); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate converts a raw passport date into dd/mm/YYYY. The field name
// drives century expansion and plausibility: birth and issue dates cannot be
// in the future, expiry dates must land within the next 25 years.
// Returns ("", false) when the value cannot be parsed.
func NormalizeDate(raw, field string, now time.Time) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	dt, ok := parseDayMonthName(raw, field, now)
	if !ok {
		dt, ok = parseFallback(raw)
	}
	if !ok {
		return "", false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch field {
	case constants.FieldBirthDate, constants.FieldIssueDate:
		if dt.After(today) {
			dt = dt.AddDate(-100, 0, 0)
		}
	case constants.FieldExpiryDate:
		for dt.Before(today) {
			dt = dt.AddDate(100, 0, 0)
		}
		for dt.After(today.AddDate(25, 0, 0)) {
			dt = dt.AddDate(-100, 0, 0)
		}
	}
	return dt.Format(dateLayout), true
}
