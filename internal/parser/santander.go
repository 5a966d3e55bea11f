package parser

import (
	"regexp"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// SantanderStrategy handles Santander invoice PDFs.
//
// Layout:
//
//	Vencimento 21/11/2025        Total a pagar R$ 2.845,77
//	Histórico de despesas (valores em reais)
//	03/11 POSTO IPIRANGA 1234      250,00
//	05/11 PAGAMENTO EM 05/11    -2.500,00
type SantanderStrategy struct{}

func (p *SantanderStrategy) Issuer() models.Issuer {
	return models.IssuerSantander
}

func (p *SantanderStrategy) IsApplicable(text string) bool {
	// Getnet merchant receipts carry Santander branding but are not card
	// invoices.
	if containsMarker(text, "getnet") {
		return false
	}
	return containsMarker(text, "santander")
}

var santanderDuePattern = regexp.MustCompile(`vencimento\D{0,20}?(\d{1,2}/\d{1,2}/\d{4})`)

func (p *SantanderStrategy) ExtractDueDate(text string) (time.Time, bool) {
	m := santanderDuePattern.FindStringSubmatch(normalizeText(text))
	if m == nil {
		return time.Time{}, false
	}
	return parseDateSlash(m[1])
}

func (p *SantanderStrategy) ExtractTransactions(text string) []models.Transaction {
	ref, ok := p.ExtractDueDate(text)
	if !ok {
		ref, _ = latestFullDate(normalizeText(text))
	}
	return scanSlashRows(text, ref)
}
