// Package textutil provides string cleanup and fuzzy matching helpers shared
// by the field normalizer, the country rules, and the review-data merger.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	wsPattern    = regexp.MustCompile(`\s+`)
	punctPattern = regexp.MustCompile(`[^\w\s]`)

	asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// CollapseWhitespace trims a string and squeezes internal runs of whitespace
// to a single space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(wsPattern.ReplaceAllString(s, " "))
}

// StripPunctuation replaces every non-word, non-space character with a space.
func StripPunctuation(s string) string {
	return punctPattern.ReplaceAllString(s, " ")
}

// Transliterate folds accented characters to their ASCII base form
// (É -> E, Ñ -> N). Characters with no decomposition pass through.
func Transliterate(s string) string {
	out, _, err := transform.String(asciiFold, s)
	if err != nil {
		return s
	}
	return out
}

// Ratio returns a 0-100 similarity score between two strings, based on
// Levenshtein distance over the longer length.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return int(levenshtein.Similarity(a, b, nil) * 100)
}

// PartialRatio returns the best 0-100 similarity between the shorter string
// and any same-length window of the longer string. A high score means the
// shorter string appears nearly verbatim somewhere inside the longer one.
func PartialRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == len(longer) {
		return Ratio(shorter, longer)
	}
	best := 0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		score := Ratio(shorter, longer[i:i+len(shorter)])
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// BestMatch returns the candidate with the highest plain ratio against the
// query, with its score. Returns ("", 0) for no candidates.
func BestMatch(query string, candidates []string) (string, int) {
	best, bestScore := "", 0
	for _, c := range candidates {
		if score := Ratio(query, c); score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, bestScore
}
