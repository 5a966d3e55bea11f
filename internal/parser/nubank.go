package parser

import (
	"regexp"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// NubankStrategy handles Nubank invoice PDFs.
//
// Layout (textual month abbreviations, no year on rows):
//
//	Data de vencimento: 21 NOV 2025
//	TRANSAÇÕES
//	07 NOV  Uber *Trip                24,90
//	08 NOV  Ifood *Restaurante 02/03  61,35
//	10 NOV  Pagamento recebido    -1.234,56
type NubankStrategy struct{}

func (p *NubankStrategy) Issuer() models.Issuer {
	return models.IssuerNubank
}

func (p *NubankStrategy) IsApplicable(text string) bool {
	return containsMarker(text, "nubank", "nu pagamentos")
}

var (
	// "data de vencimento: 21 nov 2025" (year optional on some renders).
	nubankDueTextual = regexp.MustCompile(`(?:data\s+de\s+)?vencimento\D{0,15}?(\d{1,2})\s+(?:de\s+)?(jan|fev|mar|abr|mai|jun|jul|ago|set|out|nov|dez)[a-z]*\.?\s*(?:de\s+)?(\d{4})?`)
	// Older statements print "vencimento: 21/11/2025".
	nubankDueSlash = regexp.MustCompile(`vencimento\D{0,15}?(\d{1,2}/\d{1,2}/\d{4})`)
)

func (p *NubankStrategy) ExtractDueDate(text string) (time.Time, bool) {
	folded := normalizeText(text)

	if m := nubankDueSlash.FindStringSubmatch(folded); m != nil {
		return parseDateSlash(m[1])
	}
	if m := nubankDueTextual.FindStringSubmatch(folded); m != nil {
		if m[3] != "" {
			return buildTextualDate(m[1], m[2], m[3])
		}
		if ref, ok := latestFullDate(folded); ok {
			return parseDayMonthPT(m[1], m[2], ref)
		}
		return parseDayMonthPT(m[1], m[2], time.Time{})
	}
	return time.Time{}, false
}

func (p *NubankStrategy) ExtractTransactions(text string) []models.Transaction {
	ref, _ := p.ExtractDueDate(text)
	return scanDayMonthRows(text, ref)
}

func buildTextualDate(dayS, monS, yearS string) (time.Time, bool) {
	month, ok := monthsPT[monS]
	if !ok {
		return time.Time{}, false
	}
	d, ok := buildDate(dayS, "01", yearS)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(d.Year(), month, d.Day(), 0, 0, 0, 0, time.UTC), true
}
