package extractor

import (
	"strings"
	"testing"
)

func TestHasMinimumSignal(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		minLen int
		want   bool
	}{
		{"empty", "", 50, false},
		{"whitespace only", "   \n\t  ", 50, false},
		{"too short", "fatura", 50, false},
		{
			"normal invoice text",
			"Fatura do cartao de credito\nVencimento 21/11/2025\n03/11 SUPERMERCADO 120,00",
			50,
			true,
		},
		{
			"mostly punctuation",
			strings.Repeat("... --- ,,, ;;; ", 10),
			50,
			false,
		},
		{
			"dominated by replacement characters",
			strings.Repeat("fa�tura �� ", 20),
			50,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasMinimumSignal(tt.text, tt.minLen); got != tt.want {
				t.Errorf("HasMinimumSignal(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestAlnumRatio(t *testing.T) {
	if got := AlnumRatio("abc123"); got != 1.0 {
		t.Errorf("all-alnum ratio: got %v, want 1.0", got)
	}
	if got := AlnumRatio("..,,;;"); got != 0.0 {
		t.Errorf("no-alnum ratio: got %v, want 0.0", got)
	}
	if got := AlnumRatio("ab.."); got != 0.5 {
		t.Errorf("half-alnum ratio: got %v, want 0.5", got)
	}
	if got := AlnumRatio("   "); got != 0.0 {
		t.Errorf("whitespace-only ratio: got %v, want 0.0", got)
	}
	// Spaces are excluded from the denominator.
	if got := AlnumRatio("a b c d"); got != 1.0 {
		t.Errorf("spaced alnum ratio: got %v, want 1.0", got)
	}
}

func TestReplacementRatio(t *testing.T) {
	if got := ReplacementRatio("abcd"); got != 0.0 {
		t.Errorf("clean text: got %v, want 0.0", got)
	}
	if got := ReplacementRatio("ab��"); got != 0.5 {
		t.Errorf("half-replacement text: got %v, want 0.5", got)
	}
	if got := ReplacementRatio(""); got != 0.0 {
		t.Errorf("empty text: got %v, want 0.0", got)
	}
}

func TestGarbledCharRatio(t *testing.T) {
	if got := GarbledCharRatio("linha um\nlinha dois\t"); got != 0.0 {
		t.Errorf("newlines and tabs must not count as garbled, got %v", got)
	}
	if got := GarbledCharRatio("ab\x00�"); got != 0.5 {
		t.Errorf("control and replacement characters: got %v, want 0.5", got)
	}
}
