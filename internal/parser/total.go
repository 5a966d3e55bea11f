package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Declared-total extraction. Phrasings that explicitly denote the current
// invoice run first, so a nearby "previous invoice balance" figure is not
// captured by accident. The window after each phrase is short and rejected
// outright when it mentions the previous invoice.

const amountExpr = `(-?\s*(?:r\$)?\s*\d{1,3}(?:\.\d{3})*,\d{2})`

var totalPhrasings = []*regexp.Regexp{
	// Current-invoice phrasings, highest priority.
	regexp.MustCompile(`total\s+desta\s+fatura\D{0,20}?` + amountExpr),
	regexp.MustCompile(`total\s+da\s+fatura\s+atual\D{0,20}?` + amountExpr),
	regexp.MustCompile(`valor\s+total\s+desta\s+fatura\D{0,20}?` + amountExpr),
	// Generic phrasings.
	regexp.MustCompile(`total\s+a\s+pagar\D{0,20}?` + amountExpr),
	regexp.MustCompile(`valor\s+total\s+da\s+fatura\D{0,20}?` + amountExpr),
	regexp.MustCompile(`total\s+da\s+fatura\D{0,20}?` + amountExpr),
}

// FindDeclaredTotal extracts the invoice's own stated total from raw text.
func FindDeclaredTotal(text string) (decimal.Decimal, bool) {
	folded := normalizeText(text)
	for _, re := range totalPhrasings {
		for _, m := range re.FindAllStringSubmatch(folded, -1) {
			// Guard against "total da fatura anterior" style captures.
			idx := strings.Index(folded, m[0])
			if idx >= 0 {
				window := folded[idx:min(idx+len(m[0])+20, len(folded))]
				if strings.Contains(window, "anterior") {
					continue
				}
			}
			total, err := parseAmountBR(m[1])
			if err != nil || !total.IsPositive() {
				continue
			}
			return total, true
		}
	}
	return decimal.Zero, false
}

// BelowDeclaredTotal reports whether the summed expenses fall materially
// short of the invoice's declared total, signalling missing rows. The ratio
// is an empirically tuned configuration value.
func BelowDeclaredTotal(declared, expenses decimal.Decimal, ratio float64) bool {
	if !declared.IsPositive() {
		return false
	}
	threshold := declared.Mul(decimal.NewFromFloat(ratio))
	return expenses.LessThan(threshold)
}
