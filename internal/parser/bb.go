package parser

import (
	"regexp"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// BBStrategy handles Banco do Brasil (Ourocard) invoice PDFs.
//
// Layout:
//
//	Pagável até 21/11/2025
//	Demonstrativo de despesas
//	03/11 RESTAURANTE CASA NOVA   98,50
//	05/11 PGTO DEB AUTOMATICO  -1.800,00
type BBStrategy struct{}

func (p *BBStrategy) Issuer() models.Issuer {
	return models.IssuerBB
}

func (p *BBStrategy) IsApplicable(text string) bool {
	return containsMarker(text, "banco do brasil", "ourocard", "bb cartoes")
}

// BB prints "pagável até" where other issuers print "vencimento".
var bbDuePattern = regexp.MustCompile(`(?:pagavel\s+ate|vencimento)\D{0,20}?(\d{1,2}/\d{1,2}/\d{4})`)

func (p *BBStrategy) ExtractDueDate(text string) (time.Time, bool) {
	m := bbDuePattern.FindStringSubmatch(normalizeText(text))
	if m == nil {
		return time.Time{}, false
	}
	return parseDateSlash(m[1])
}

func (p *BBStrategy) ExtractTransactions(text string) []models.Transaction {
	ref, ok := p.ExtractDueDate(text)
	if !ok {
		ref, _ = latestFullDate(normalizeText(text))
	}
	return scanSlashRows(text, ref)
}
