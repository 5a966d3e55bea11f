package parser

import (
	"regexp"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// XPStrategy handles XP (Visa Infinite) invoice PDFs. XP rows always carry
// the full year.
//
// Layout:
//
//	Vencimento 21/11/2025
//	03/11/2025 RESTAURANTE FASANO    320,00
//	05/11/2025 Pagamento recebido -3.000,00
type XPStrategy struct{}

func (p *XPStrategy) Issuer() models.Issuer {
	return models.IssuerXP
}

func (p *XPStrategy) IsApplicable(text string) bool {
	return containsMarker(text, "cartao xp", "xp investimentos", "banco xp", "xp visa infinite")
}

var xpDuePattern = regexp.MustCompile(`vencimento\D{0,20}?(\d{1,2}/\d{1,2}/\d{4})`)

func (p *XPStrategy) ExtractDueDate(text string) (time.Time, bool) {
	m := xpDuePattern.FindStringSubmatch(normalizeText(text))
	if m == nil {
		return time.Time{}, false
	}
	return parseDateSlash(m[1])
}

func (p *XPStrategy) ExtractTransactions(text string) []models.Transaction {
	ref, ok := p.ExtractDueDate(text)
	if !ok {
		ref, _ = latestFullDate(normalizeText(text))
	}
	return scanSlashRows(text, ref)
}
