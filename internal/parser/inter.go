package parser

import (
	"regexp"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// InterStrategy handles Banco Inter invoice PDFs.
//
// Layout (full month names, "de" connectors):
//
//	Vencimento: 21 de novembro de 2025
//	03 de novembro  Posto Shell Centro     120,00
//	05 de novembro  Pagamento efetuado  -1.500,00
type InterStrategy struct{}

func (p *InterStrategy) Issuer() models.Issuer {
	return models.IssuerInter
}

func (p *InterStrategy) IsApplicable(text string) bool {
	return containsMarker(text, "banco inter", "inter&co", "intermedium")
}

var (
	interDueTextual = regexp.MustCompile(`vencimento\D{0,15}?(\d{1,2})\s+de\s+([a-z]{3,9})\s+de\s+(\d{4})`)
	interDueSlash   = regexp.MustCompile(`vencimento\D{0,15}?(\d{1,2}/\d{1,2}/\d{4})`)
)

func (p *InterStrategy) ExtractDueDate(text string) (time.Time, bool) {
	folded := normalizeText(text)
	if m := interDueTextual.FindStringSubmatch(folded); m != nil {
		return buildTextualDate(m[1], m[2][:3], m[3])
	}
	if m := interDueSlash.FindStringSubmatch(folded); m != nil {
		return parseDateSlash(m[1])
	}
	return time.Time{}, false
}

func (p *InterStrategy) ExtractTransactions(text string) []models.Transaction {
	ref, _ := p.ExtractDueDate(text)
	return scanDayMonthRows(text, ref)
}
