// Package quality scores parse attempts and gates what the pipeline may
// return. The score is advisory input to fallback arbitration; the validator
// is the single pass/fail gate.
package quality

import (
	"github.com/insightdelivered/invoice-extractor/internal/extractor"
	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Thresholds holds the tunable inputs of the rubric. The values are
// empirically tuned; see the config package for defaults.
type Thresholds struct {
	MinTextLength       int
	MinTransactions     int
	LowTransactionCount int
	MaxGarbledRatio     float64
}

// Evaluate computes the confidence score for one parse attempt over the
// text it came from. The result is always within [0, 100].
func Evaluate(r *models.ParseResult, t Thresholds) int {
	score := 0

	if !r.DueDate.IsZero() {
		score += 20
	}
	if r.Total.IsPositive() {
		score += 20
	}
	if r.CardLastFour != "" {
		score += 10
	}
	if len(r.Transactions) >= 5 {
		score += 20
	}
	if r.ValidRatio() >= 0.8 {
		score += 30
	}

	if len(r.RawText) < t.MinTextLength {
		score -= 30
	}
	if extractor.GarbledCharRatio(r.RawText) > t.MaxGarbledRatio {
		score -= 20
	}
	if len(r.Transactions) < t.LowTransactionCount {
		score -= 25
	}
	if anyMissingFields(r.Transactions) {
		score -= 15
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func anyMissingFields(txs []models.Transaction) bool {
	for _, t := range txs {
		if t.Description == "" || t.Amount.IsZero() {
			return true
		}
	}
	return false
}
