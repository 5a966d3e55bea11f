package extractor

import (
	"strings"
	"unicode"
)

// HasMinimumSignal reports whether text-layer output carries enough signal
// to be worth parsing. Blank output, output that is mostly non-alphanumeric
// for its length, and output dominated by replacement characters all fail.
func HasMinimumSignal(text string, minLen int) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if len(trimmed) < minLen {
		return false
	}
	if AlnumRatio(trimmed) < 0.35 {
		return false
	}
	if ReplacementRatio(trimmed) > 0.05 {
		return false
	}
	return true
}

// AlnumRatio returns the share of letters and digits among non-space runes.
func AlnumRatio(text string) float64 {
	total := 0
	alnum := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alnum) / float64(total)
}

// ReplacementRatio returns the share of replacement characters (U+FFFD)
// among all runes. Identity-encoded fonts decode into these.
func ReplacementRatio(text string) float64 {
	total := 0
	bad := 0
	for _, r := range text {
		total++
		if r == '�' {
			bad++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}

// GarbledCharRatio returns the share of control and replacement characters
// among all runes. Used by the quality rubric.
func GarbledCharRatio(text string) float64 {
	total := 0
	bad := 0
	for _, r := range text {
		total++
		if r == '�' || (unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r') {
			bad++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}
