// Package parser turns extracted invoice text into structured transactions.
// One strategy per issuer layout; the selector picks the best applicable
// strategy for a given text representation.
package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/common"
	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Strategy is one issuer layout. Implementations are stateless pure
// functions over text.
type Strategy interface {
	// Issuer returns the issuer this layout belongs to.
	Issuer() models.Issuer
	// IsApplicable reports whether the text looks like this issuer's
	// layout. Detection must be conservative: weak markers shared between
	// issuers are not enough on their own.
	IsApplicable(text string) bool
	// ExtractDueDate finds the invoice due date in this layout.
	ExtractDueDate(text string) (time.Time, bool)
	// ExtractTransactions extracts the current cycle's rows. Future-cycle
	// installment sections are excluded.
	ExtractTransactions(text string) []models.Transaction
}

// DocumentExtractor is the remote structured-extraction collaborator used
// by document-aware strategies.
type DocumentExtractor interface {
	ParseInvoice(ctx context.Context, text string) (*models.StructuredInvoice, error)
}

// DocumentStrategy is implemented by strategies that can hand the raw
// document to a remote collaborator when patterns alone are unreliable.
type DocumentStrategy interface {
	Strategy
	// ParseWithDocument returns nil (not an error) when the collaborator
	// is unavailable; the caller then falls back to pattern extraction.
	ParseWithDocument(ctx context.Context, doc []byte, text string) (*models.ParseResult, error)
}

// DefaultStrategies returns the full strategy list in specificity-priority
// order: premium sub-variants come before their issuer's generic variant
// and win ties.
func DefaultStrategies(docParser DocumentExtractor) []Strategy {
	return []Strategy{
		&ItauPersonnaliteStrategy{},
		&ItauStrategy{},
		&NubankStrategy{},
		&BradescoStrategy{},
		&SantanderStrategy{},
		&BBStrategy{},
		&CaixaStrategy{Doc: docParser},
		&InterStrategy{},
		&C6Strategy{},
		&XPStrategy{},
		&BTGStrategy{},
	}
}

// American Express invoices use a layout family this pipeline deliberately
// does not parse. They are rejected up front, before any selection attempt.
var amexMarkers = []string{
	"american express",
	"americanexpress.com.br",
	"amex resolve",
}

// DetectUnsupported rejects documents from hard-excluded issuer families.
func DetectUnsupported(text string) error {
	if containsMarker(text, amexMarkers...) {
		return common.NewInputError(fmt.Errorf("%w: american express", common.ErrUnsupportedIssuer))
	}
	return nil
}
