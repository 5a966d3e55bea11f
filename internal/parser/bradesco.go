package parser

import (
	"regexp"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// BradescoStrategy handles Bradesco invoice PDFs.
//
// Layout:
//
//	Vencimento 21/11/2025
//	Data  Histórico                 Valor (R$)
//	03/11 SUPERMERCADO PAGUE MENOS  245,18
//	05/11 PGTO. POR DEB. EM C/C   -1.000,00
//
// Bradesco's renderer frequently fuses the date with the first word of the
// description ("03/11SUPERMERCADO"); a space is re-inserted before row
// matching.
type BradescoStrategy struct{}

func (p *BradescoStrategy) Issuer() models.Issuer {
	return models.IssuerBradesco
}

func (p *BradescoStrategy) IsApplicable(text string) bool {
	return containsMarker(text, "bradesco")
}

var bradescoDuePattern = regexp.MustCompile(`vencimento\D{0,20}?(\d{1,2}/\d{1,2}/\d{4})`)

// "03/11SUPERMERCADO" → "03/11 SUPERMERCADO".
var bradescoFusedDate = regexp.MustCompile(`(\d{1,2}/\d{1,2})([A-Za-zÀ-ÿ])`)

func (p *BradescoStrategy) ExtractDueDate(text string) (time.Time, bool) {
	m := bradescoDuePattern.FindStringSubmatch(normalizeText(text))
	if m == nil {
		return time.Time{}, false
	}
	return parseDateSlash(m[1])
}

func (p *BradescoStrategy) ExtractTransactions(text string) []models.Transaction {
	ref, ok := p.ExtractDueDate(text)
	if !ok {
		ref, _ = latestFullDate(normalizeText(text))
	}
	unfused := bradescoFusedDate.ReplaceAllString(text, "$1 $2")
	return scanSlashRows(unfused, ref)
}
