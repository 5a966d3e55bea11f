package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

type stubDocExtractor struct {
	inv   *models.StructuredInvoice
	err   error
	calls int
}

func (s *stubDocExtractor) ParseInvoice(ctx context.Context, text string) (*models.StructuredInvoice, error) {
	s.calls++
	return s.inv, s.err
}

const caixaSample = `CAIXA ECONOMICA FEDERAL
Cartoes Caixa
Vencimento 21/11/2025
03/11 PADARIA CENTRAL 18,40`

func TestCaixaStrategy_DocumentExtractorWins(t *testing.T) {
	due := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	stub := &stubDocExtractor{inv: &models.StructuredInvoice{
		DueDate: due,
		Total:   decimal.NewFromFloat(118.40),
		Transactions: []models.Transaction{
			{Description: "PADARIA CENTRAL", Amount: decimal.NewFromFloat(18.40), Type: models.TypeExpense},
			{Description: "UBER TRIP", Amount: decimal.NewFromFloat(100.00), Type: models.TypeExpense},
		},
	}}

	p := &CaixaStrategy{Doc: stub}
	res, err := p.ParseWithDocument(context.Background(), nil, caixaSample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result from the document extractor")
	}
	if stub.calls != 1 {
		t.Errorf("extractor calls: got %d, want 1", stub.calls)
	}
	if res.Issuer != models.IssuerCaixa {
		t.Errorf("issuer: got %q", res.Issuer)
	}
	if len(res.Transactions) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(res.Transactions))
	}
	// Categories are filled in locally when the collaborator omits them.
	if res.Transactions[1].Category != "transporte" {
		t.Errorf("category: got %q, want transporte", res.Transactions[1].Category)
	}
}

func TestCaixaStrategy_ErrorReportedForFallback(t *testing.T) {
	stub := &stubDocExtractor{err: errors.New("remote collaborator down")}
	p := &CaixaStrategy{Doc: stub}

	res, err := p.ParseWithDocument(context.Background(), nil, caixaSample)
	if err == nil {
		t.Fatal("expected the collaborator error to be reported")
	}
	if res != nil {
		t.Error("no result expected on collaborator failure")
	}

	// The pattern pass still works independently.
	txs := p.ExtractTransactions(caixaSample)
	if len(txs) != 1 {
		t.Fatalf("pattern transactions: got %d, want 1", len(txs))
	}
}

func TestCaixaStrategy_NilExtractorDegrades(t *testing.T) {
	p := &CaixaStrategy{}
	res, err := p.ParseWithDocument(context.Background(), nil, caixaSample)
	if err != nil || res != nil {
		t.Errorf("nil extractor must degrade silently, got (%v, %v)", res, err)
	}
}
