package rules

// ocrDigitCorrections maps characters OCR commonly misreads in all-digit
// sections of a document number to the intended digit.
var ocrDigitCorrections = map[rune]rune{
	'O': '0',
	'I': '1',
	'S': '5',
	'B': '8',
	'G': '6',
	'Z': '2',
	'D': '0',
	'l': '1',
	'o': '0',
	's': '5',
	'g': '6',
	'z': '2',
}

// CorrectDigits rewrites every confusable character to its digit.
func CorrectDigits(text string) string {
	out := make([]rune, 0, len(text))
	for _, ch := range text {
		if d, ok := ocrDigitCorrections[ch]; ok {
			ch = d
		}
		out = append(out, ch)
	}
	return string(out)
}

// CorrectDigitSection applies digit corrections to text[start:end] only,
// leaving the rest untouched. Out-of-range bounds return the input as is.
func CorrectDigitSection(text string, start, end int) string {
	if text == "" || start >= len(text) || end > len(text) || start >= end {
		return text
	}
	return text[:start] + CorrectDigits(text[start:end]) + text[end:]
}

// isDigits reports whether s is non-empty and all ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
