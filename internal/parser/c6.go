package parser

import (
	"regexp"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// C6Strategy handles C6 Bank invoice PDFs.
//
// Layout:
//
//	Vencimento 21/11/2025
//	CARTAO C6 CARBON - FINAL 4821
//	03/11 AMAZON MARKETPLACE    145,30
//	05/11 Pagamento de fatura -2.000,00
type C6Strategy struct{}

func (p *C6Strategy) Issuer() models.Issuer {
	return models.IssuerC6
}

func (p *C6Strategy) IsApplicable(text string) bool {
	// "c6" alone is too short to be safe as a marker.
	return containsMarker(text, "c6 bank", "c6 carbon", "banco c6")
}

var c6DuePattern = regexp.MustCompile(`vencimento\D{0,20}?(\d{1,2}/\d{1,2}/\d{4})`)

func (p *C6Strategy) ExtractDueDate(text string) (time.Time, bool) {
	m := c6DuePattern.FindStringSubmatch(normalizeText(text))
	if m == nil {
		return time.Time{}, false
	}
	return parseDateSlash(m[1])
}

func (p *C6Strategy) ExtractTransactions(text string) []models.Transaction {
	ref, ok := p.ExtractDueDate(text)
	if !ok {
		ref, _ = latestFullDate(normalizeText(text))
	}
	return scanSlashRows(text, ref)
}
