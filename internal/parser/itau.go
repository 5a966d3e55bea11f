package parser

import (
	"regexp"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// ItauStrategy handles Itaú / Itaucard invoice PDFs.
//
// Layout:
//
//	vencimento: 21/11/2025          total desta fatura R$ 3.481,20
//	JOAO A SILVA - final 4821
//	03/11  FARMACIA SAO PAULO        45,90
//	05/11  MAGAZINELUZA 02/05       189,90
//	07/11  PAGAMENTO EFETUADO    -3.100,00
//	compras parceladas - proximas faturas
//	05/12  MAGAZINELUZA 03/05       189,90   (excluded)
type ItauStrategy struct{}

func (p *ItauStrategy) Issuer() models.Issuer {
	return models.IssuerItau
}

func (p *ItauStrategy) IsApplicable(text string) bool {
	return containsMarker(text, "itau", "itaucard")
}

// "vencimento: 21/11/2025". Itaú always prints the fully-qualified date.
var itauDuePattern = regexp.MustCompile(`vencimento\D{0,20}?(\d{1,2}/\d{1,2}/\d{4})`)

func (p *ItauStrategy) ExtractDueDate(text string) (time.Time, bool) {
	m := itauDuePattern.FindStringSubmatch(normalizeText(text))
	if m == nil {
		return time.Time{}, false
	}
	return parseDateSlash(m[1])
}

func (p *ItauStrategy) ExtractTransactions(text string) []models.Transaction {
	ref, ok := p.ExtractDueDate(text)
	if !ok {
		ref, _ = latestFullDate(normalizeText(text))
	}
	return scanSlashRows(text, ref)
}
