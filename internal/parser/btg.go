package parser

import (
	"regexp"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// BTGStrategy handles BTG Pactual invoice PDFs.
//
// Layout (abbreviated month names with a trailing dot):
//
//	Vencimento: 21 nov. 2025
//	03 nov.  WINE COMERCIO         180,00
//	05 nov.  Pagamento recebido -2.200,00
type BTGStrategy struct{}

func (p *BTGStrategy) Issuer() models.Issuer {
	return models.IssuerBTG
}

func (p *BTGStrategy) IsApplicable(text string) bool {
	return containsMarker(text, "btg pactual", "banco btg")
}

var (
	btgDueTextual = regexp.MustCompile(`vencimento\D{0,15}?(\d{1,2})\s+(jan|fev|mar|abr|mai|jun|jul|ago|set|out|nov|dez)[a-z]*\.?\s*(\d{4})`)
	btgDueSlash   = regexp.MustCompile(`vencimento\D{0,15}?(\d{1,2}/\d{1,2}/\d{4})`)
)

func (p *BTGStrategy) ExtractDueDate(text string) (time.Time, bool) {
	folded := normalizeText(text)
	if m := btgDueTextual.FindStringSubmatch(folded); m != nil {
		return buildTextualDate(m[1], m[2], m[3])
	}
	if m := btgDueSlash.FindStringSubmatch(folded); m != nil {
		return parseDateSlash(m[1])
	}
	return time.Time{}, false
}

func (p *BTGStrategy) ExtractTransactions(text string) []models.Transaction {
	ref, _ := p.ExtractDueDate(text)
	return scanDayMonthRows(text, ref)
}
