package parser

import (
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Garbled-merchant detection. Font-mapping damage turns merchant names into
// digit-laced noise ("XK9RRQ2025BZ1") or vowelless runs. Short tokens from
// well-known merchants legitimately mix letters and digits (99app, iFood
// order codes), so a known-good list is exempted regardless of shape.

var exemptTokens = []string{
	"uber", "99app", "99pop", "99 tecnologia",
	"ifood", "rappi", "aiqfome",
	"pagamento", "anuidade", "encargos", "iof",
	"pix", "ted", "doc",
	"netflix", "spotify", "amazon", "mercadolivre",
}

var exemptMatcher = ahocorasick.NewStringMatcher(exemptTokens)

// isExemptDescription checks the known-good list, first with a one-pass
// exact scan, then with a fold-normalized fuzzy match to catch spaced or
// partially garbled variants ("i food", "ub er").
func isExemptDescription(folded string) bool {
	if len(exemptMatcher.Match([]byte(folded))) > 0 {
		return true
	}
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
	for _, tok := range exemptTokens {
		if len(tok) >= 5 && fuzzy.MatchNormalizedFold(tok, compact) {
			return true
		}
	}
	return false
}

// IsGarbledDescription flags descriptions that look like font-mapping
// damage rather than merchant names.
func IsGarbledDescription(desc string) bool {
	folded := normalizeKey(desc)
	if strings.TrimSpace(folded) == "" {
		return false
	}
	if isExemptDescription(folded) {
		return false
	}

	for _, tok := range strings.Fields(folded) {
		if len(tok) < 10 {
			continue
		}
		letters, digits, vowels := 0, 0, 0
		for _, r := range tok {
			switch {
			case unicode.IsDigit(r):
				digits++
			case unicode.IsLetter(r):
				letters++
				if strings.ContainsRune("aeiou", r) {
					vowels++
				}
			}
		}
		// Long token mixing letters with several digits.
		if letters > 0 && digits >= 2 {
			return true
		}
		// Long letter-heavy token with almost no vowels.
		if letters >= 8 && float64(vowels)/float64(letters) < 0.15 {
			return true
		}
	}
	return false
}

// GarbledShare returns the fraction of transactions whose description is
// flagged garbled.
func GarbledShare(txs []models.Transaction) float64 {
	if len(txs) == 0 {
		return 0
	}
	garbled := 0
	for _, t := range txs {
		if IsGarbledDescription(t.Description) {
			garbled++
		}
	}
	return float64(garbled) / float64(len(txs))
}

// MostlyMissingDates reports whether more than half of the rows lost their
// date during extraction.
func MostlyMissingDates(txs []models.Transaction) bool {
	if len(txs) == 0 {
		return false
	}
	missing := 0
	for _, t := range txs {
		if t.Date.IsZero() {
			missing++
		}
	}
	return missing*2 > len(txs)
}
