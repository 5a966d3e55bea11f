package pipeline

import (
	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Decide arbitrates between the best local result and an optional
// external-service result, both already scored. The margins are empirically
// tuned configuration values with no deeper meaning: the prefer margin makes
// the external service earn a clear win before its cost is justified, and
// the stickiness margin avoids churn on near-ties.
func Decide(local, external *models.ParseResult, preferMargin, stickinessMargin int) (*models.ParseResult, models.FallbackDecision) {
	if external == nil {
		return local, models.DecisionLocalFallback
	}
	switch {
	case external.Score >= local.Score+preferMargin:
		return external, models.DecisionExternal
	case external.Score >= local.Score-stickinessMargin && external.Score <= local.Score:
		return local, models.DecisionLocal
	case external.Score > local.Score:
		return external, models.DecisionExternal
	default:
		return local, models.DecisionLocal
	}
}
