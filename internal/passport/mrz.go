package passport

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/passport-tracker/internal/textutil"
)

const mrzAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"

var (
	doubleFillerBeforeLetter = regexp.MustCompile(`<<[A-Z]`)
	lineBreaks               = regexp.MustCompile(`[\r\n]+`)
)

// SplitMRZBlock splits a raw "MRZ Strings" value into its two best candidate
// lines. A candidate must be at least 30 characters, contain the '<' filler
// and use only the MRZ alphabet; the two longest candidates are kept.
func SplitMRZBlock(block string) (string, string) {
	var cands []string
	for _, line := range lineBreaks.Split(block, -1) {
		t := textutil.CollapseWhitespace(line)
		if len(t) >= 30 && strings.Contains(t, "<") && isMRZAlphabet(t) {
			cands = append(cands, t)
		}
	}
	// two longest, in order of length
	var l1, l2 string
	for _, c := range cands {
		switch {
		case len(c) > len(l1):
			l1, l2 = c, l1
		case len(c) > len(l2):
			l2 = c
		}
	}
	return l1, l2
}

func isMRZAlphabet(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(mrzAlphabet, r) {
			return false
		}
	}
	return true
}

// CheckDigit computes the ICAO 9303 check digit for an MRZ substring:
// weights 7,3,1 repeating; digits are face value, '<' is 0, letters are
// A=10, B=11, ...
func CheckDigit(s string) int {
	weights := []int{7, 3, 1}
	total := 0
	for i, ch := range s {
		var value int
		switch {
		case ch >= '0' && ch <= '9':
			value = int(ch - '0')
		case ch == '<':
			value = 0
		default:
			value = int(ch) - 55
		}
		total += value * weights[i%3]
	}
	return total % 10
}

// LooksGarbledLine1 reports a line 1 with more than one "<<" run directly
// before a letter, which indicates the OCR misplaced name separators and the
// line cannot be trusted for name cross-validation.
func LooksGarbledLine1(line1 string) bool {
	return len(doubleFillerBeforeLetter.FindAllString(line1, -1)) > 1
}
