package quality

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

var testThresholds = Thresholds{
	MinTextLength:       300,
	MinTransactions:     1,
	LowTransactionCount: 2,
	MaxGarbledRatio:     0.15,
}

func fullResult() *models.ParseResult {
	due := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	txs := make([]models.Transaction, 0, 5)
	for i := 0; i < 5; i++ {
		txs = append(txs, models.Transaction{
			Description: "MERCHANT",
			Amount:      decimal.NewFromInt(int64(10 + i)),
			Type:        models.TypeExpense,
			Date:        due.AddDate(0, 0, -10+i),
		})
	}
	return &models.ParseResult{
		Issuer:       models.IssuerItau,
		DueDate:      due,
		Total:        decimal.NewFromInt(60),
		Transactions: txs,
		CardLastFour: "4821",
		RawText:      strings.Repeat("linha de texto da fatura\n", 20),
	}
}

func TestEvaluate_FullSignals(t *testing.T) {
	if got := Evaluate(fullResult(), testThresholds); got != 100 {
		t.Errorf("score: got %d, want 100", got)
	}
}

func TestEvaluate_NeverNegative(t *testing.T) {
	r := &models.ParseResult{RawText: "x"}
	if got := Evaluate(r, testThresholds); got != 0 {
		t.Errorf("score: got %d, want 0 (clamped)", got)
	}
}

func TestEvaluate_Bounds(t *testing.T) {
	cases := []*models.ParseResult{
		fullResult(),
		{},
		{RawText: strings.Repeat("a", 1000)},
		{Transactions: []models.Transaction{{Description: "X", Amount: decimal.NewFromInt(1)}}},
	}
	for i, r := range cases {
		got := Evaluate(r, testThresholds)
		if got < 0 || got > 100 {
			t.Errorf("case %d: score %d out of [0, 100]", i, got)
		}
	}
}

func TestEvaluate_ShortTextPenalty(t *testing.T) {
	r := fullResult()
	long := Evaluate(r, testThresholds)
	r.RawText = "curto"
	short := Evaluate(r, testThresholds)
	if short != long-30 {
		t.Errorf("short-text penalty: got %d after %d, want a 30-point drop", short, long)
	}
}

func TestEvaluate_MissingFieldsPenalty(t *testing.T) {
	r := fullResult()
	r.Transactions[2].Description = ""
	got := Evaluate(r, testThresholds)
	// Only the 15-point missing-fields penalty applies; the valid-ratio
	// bonus tracks dates and amounts, which are intact.
	if got != 85 {
		t.Errorf("score with a missing description: got %d, want 85", got)
	}
}

func TestValidate_Gate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ParseResult)
		reject bool
	}{
		{"accepts full result", func(r *models.ParseResult) {}, false},
		{"rejects empty transactions", func(r *models.ParseResult) { r.Transactions = nil }, true},
		{"rejects missing due date", func(r *models.ParseResult) { r.DueDate = time.Time{} }, true},
		{"rejects zero total", func(r *models.ParseResult) { r.Total = decimal.Zero }, true},
		{"rejects negative total", func(r *models.ParseResult) { r.Total = decimal.NewFromInt(-5) }, true},
		{"rejects low score", func(r *models.ParseResult) { r.Score = 10 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fullResult()
			r.Score = Evaluate(r, testThresholds)
			tt.mutate(r)
			err := Validate(r, 50, 1)
			if tt.reject && err == nil {
				t.Error("expected rejection")
			}
			if !tt.reject && err != nil {
				t.Errorf("unexpected rejection: %v", err)
			}
		})
	}
}

func TestValidate_MinimumCount(t *testing.T) {
	r := fullResult()
	r.Score = Evaluate(r, testThresholds)
	if err := Validate(r, 50, 10); err == nil {
		t.Error("expected rejection when below the minimum transaction count")
	}
}
