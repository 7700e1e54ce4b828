// Package geodata holds the embedded lookup tables used for country and
// place canonicalization: country name -> ISO-3166 alpha-3 code, issuing
// city -> country, and the curated list of known-good birth places.
package geodata

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/joseph-ayodele/passport-tracker/internal/textutil"
)

//go:embed data/country_codes.csv data/city_country.csv data/birth_places.csv
var dataFS embed.FS

var (
	loadOnce sync.Once

	countryToCode map[string]string   // "Kenya" -> "KEN"
	codeToCountry map[string]string   // "KEN" -> "Kenya"
	countryNames  []string            // insertion order of country_codes.csv
	cityToCountry map[string]string   // "NAIROBI" -> "KENYA"
	birthPlaces   map[string]struct{} // upper-cased curated places
)

func load() {
	loadOnce.Do(func() {
		countryToCode = map[string]string{}
		codeToCountry = map[string]string{}
		cityToCountry = map[string]string{}
		birthPlaces = map[string]struct{}{}

		for _, row := range mustRows("data/country_codes.csv") {
			name, code := row[0], row[1]
			countryToCode[name] = code
			countryNames = append(countryNames, name)
			// first name wins for a code; the table has no duplicates anyway
			if _, ok := codeToCountry[code]; !ok {
				codeToCountry[code] = name
			}
		}
		for _, row := range mustRows("data/city_country.csv") {
			cityToCountry[row[0]] = row[1]
		}
		for _, row := range mustRows("data/birth_places.csv") {
			birthPlaces[row[0]] = struct{}{}
		}
	})
}

func mustRows(name string) [][]string {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("geodata: missing embedded table %s: %v", name, err))
	}
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	var rows [][]string
	header := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(fmt.Sprintf("geodata: bad embedded table %s: %v", name, err))
		}
		if header {
			header = false
			continue
		}
		rows = append(rows, rec)
	}
	return rows
}

// CodeForCountry returns the alpha-3 code for a country name ("Kenya" -> "KEN").
func CodeForCountry(name string) (string, bool) {
	load()
	code, ok := countryToCode[name]
	return code, ok
}

// CountryForCode returns the canonical country name for an alpha-3 code.
func CountryForCode(code string) (string, bool) {
	load()
	name, ok := codeToCountry[code]
	return name, ok
}

// IsKnownCode reports whether code is one of the table's alpha-3 codes.
func IsKnownCode(code string) bool {
	load()
	_, ok := codeToCountry[code]
	return ok
}

// CountryNames returns the canonical country names in table order.
func CountryNames() []string {
	load()
	return countryNames
}

// FuzzyCode fuzzy-matches a free-form country name against the table and
// returns the alpha-3 code of the closest entry. Falls back to "XXX" when
// nothing matches at all.
func FuzzyCode(name string) string {
	load()
	best, score := textutil.BestMatch(strings.ToUpper(strings.TrimSpace(name)), upperNames())
	if score == 0 {
		return "XXX"
	}
	for canonical, code := range countryToCode {
		if strings.ToUpper(canonical) == best {
			return code
		}
	}
	return "XXX"
}

// FuzzyCountryName returns the canonical country name whose upper-cased form
// best matches the query with at least minScore (0-100), or "".
func FuzzyCountryName(query string, minScore int) string {
	load()
	best, score := textutil.BestMatch(strings.ToUpper(strings.TrimSpace(query)), upperNames())
	if score < minScore {
		return ""
	}
	for _, canonical := range countryNames {
		if strings.ToUpper(canonical) == best {
			return canonical
		}
	}
	return ""
}

// CountryForCity fuzzy-matches an issuing place against the city table.
// Returns (country, city, true) when a city scores >= 90 partial ratio.
func CountryForCity(place string) (string, string, bool) {
	load()
	place = strings.ToUpper(strings.TrimSpace(place))
	if place == "" {
		return "", "", false
	}
	bestScore := 0
	bestCity, bestCountry := "", ""
	for city, country := range cityToCountry {
		if score := textutil.PartialRatio(place, city); score > bestScore {
			bestScore, bestCity, bestCountry = score, city, country
		}
	}
	if bestScore >= 90 {
		return bestCountry, bestCity, true
	}
	return "", "", false
}

// IsKnownBirthPlace reports whether the cleaned place appears in the curated
// birth-places list.
func IsKnownBirthPlace(place string) bool {
	load()
	_, ok := birthPlaces[strings.ToUpper(strings.TrimSpace(place))]
	return ok
}

func upperNames() []string {
	out := make([]string, len(countryNames))
	for i, n := range countryNames {
		out[i] = strings.ToUpper(n)
	}
	return out
}
