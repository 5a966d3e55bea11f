package quality

import (
	"fmt"

	"github.com/insightdelivered/invoice-extractor/internal/common"
	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Validate is the single gate every result passes before it is returned.
// The score must already be assigned (see Evaluate).
func Validate(r *models.ParseResult, minScore, minTransactions int) error {
	switch {
	case len(r.Transactions) == 0:
		return common.NewQualityError(r.Score, "no transactions extracted")
	case len(r.Transactions) < minTransactions:
		return common.NewQualityError(r.Score,
			fmt.Sprintf("only %d transactions extracted, need at least %d", len(r.Transactions), minTransactions))
	case r.DueDate.IsZero():
		return common.NewQualityError(r.Score, "due date missing")
	case !r.Total.IsPositive():
		return common.NewQualityError(r.Score, "total amount missing or not positive")
	case r.Score < minScore:
		return common.NewQualityError(r.Score,
			fmt.Sprintf("confidence %d below acceptance threshold %d", r.Score, minScore))
	}
	return nil
}
