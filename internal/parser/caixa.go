package parser

import (
	"context"
	"regexp"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// CaixaStrategy handles Caixa Econômica Federal invoice PDFs. Caixa's
// renderer produces the most erratic text layer of the supported issuers
// (columns interleave across holders), so when a document-level extractor is
// configured the whole invoice is handed to it first and the regex pass only
// runs as a fallback.
type CaixaStrategy struct {
	// Doc, when non-nil, parses the full document in one call. A nil Doc
	// degrades the strategy to plain pattern matching.
	Doc DocumentExtractor
}

func (p *CaixaStrategy) Issuer() models.Issuer {
	return models.IssuerCaixa
}

func (p *CaixaStrategy) IsApplicable(text string) bool {
	return containsMarker(text, "caixa economica", "cartoes caixa", "caixa cartoes")
}

var caixaDuePattern = regexp.MustCompile(`vencimento\D{0,20}?(\d{1,2}/\d{1,2}/\d{4})`)

func (p *CaixaStrategy) ExtractDueDate(text string) (time.Time, bool) {
	m := caixaDuePattern.FindStringSubmatch(normalizeText(text))
	if m == nil {
		return time.Time{}, false
	}
	return parseDateSlash(m[1])
}

func (p *CaixaStrategy) ExtractTransactions(text string) []models.Transaction {
	ref, ok := p.ExtractDueDate(text)
	if !ok {
		ref, _ = latestFullDate(normalizeText(text))
	}
	return scanSlashRows(text, ref)
}

// ParseWithDocument runs the document-level extractor over the invoice text.
// A nil result with nil error tells the caller no extractor is configured;
// an error tells the caller to log it and fall back to the regex pass.
func (p *CaixaStrategy) ParseWithDocument(ctx context.Context, doc []byte, text string) (*models.ParseResult, error) {
	if p.Doc == nil {
		return nil, nil
	}
	inv, err := p.Doc.ParseInvoice(ctx, text)
	if err != nil {
		return nil, err
	}
	if inv == nil || len(inv.Transactions) == 0 {
		return nil, nil
	}

	res := &models.ParseResult{
		Issuer:       p.Issuer(),
		DueDate:      inv.DueDate,
		Total:        inv.Total,
		Transactions: inv.Transactions,
		RawText:      text,
	}
	for i := range res.Transactions {
		tx := &res.Transactions[i]
		if tx.Category == "" {
			tx.Category = Categorize(tx.Description)
		}
		if tx.Type == models.TypePayment {
			tx.Category = "pagamento"
		}
	}
	res.CardLastFour = FindCardLastFour(text)
	return res, nil
}
