package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Issuer identifies the bank/card program whose layout a document follows.
type Issuer string

const (
	IssuerItauPersonnalite Issuer = "itau-personnalite"
	IssuerItau             Issuer = "itau"
	IssuerNubank           Issuer = "nubank"
	IssuerBradesco         Issuer = "bradesco"
	IssuerSantander        Issuer = "santander"
	IssuerBB               Issuer = "bb"
	IssuerCaixa            Issuer = "caixa"
	IssuerInter            Issuer = "inter"
	IssuerC6               Issuer = "c6"
	IssuerXP               Issuer = "xp"
	IssuerBTG              Issuer = "btg"
	IssuerUnknown          Issuer = ""
)

// TxType distinguishes purchases from payments of a previous invoice.
type TxType string

const (
	TypeExpense TxType = "EXPENSE"
	TypePayment TxType = "PAYMENT"
)

// TextSource records which extraction method produced the text a result
// was parsed from.
type TextSource string

const (
	SourceTextLayer       TextSource = "text-layer"
	SourceTextLayerSorted TextSource = "text-layer-sorted"
	SourceOCR             TextSource = "ocr"
	SourceExternal        TextSource = "external-service"
)

// FallbackDecision labels the outcome of the local vs. external-service
// arbitration, for observability.
type FallbackDecision string

const (
	DecisionNone          FallbackDecision = ""
	DecisionLocal         FallbackDecision = "local"
	DecisionLocalFallback FallbackDecision = "local-used-as-fallback"
	DecisionExternal      FallbackDecision = "external"
)

// Transaction is a single invoice row.
type Transaction struct {
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	Type             TxType          `json:"type"`
	Date             time.Time       `json:"date"` // zero when the row's date could not be recovered
	Category         string          `json:"category,omitempty"`
	DueDate          time.Time       `json:"dueDate"`
	CardName         string          `json:"cardName,omitempty"`
	HolderName       string          `json:"holderName,omitempty"`
	InstallmentNum   int             `json:"installmentNum,omitempty"`
	InstallmentTotal int             `json:"installmentTotal,omitempty"`
}

// Valid reports whether the row carries the minimum fields to be usable.
// A missing date is tolerated (tracked as a quality signal instead).
func (t Transaction) Valid() bool {
	return t.Description != "" && !t.Amount.IsZero()
}

// IsExpense reports whether the row counts toward the invoice's expense sum.
func (t Transaction) IsExpense() bool {
	return t.Type != TypePayment
}

// ParseResult is one strategy's output over one text representation.
type ParseResult struct {
	Issuer       Issuer
	DueDate      time.Time
	Total        decimal.Decimal
	Transactions []Transaction
	CardLastFour string
	Score        int
	Source       TextSource
	RawText      string
}

// ExpenseSum returns the sum of expense-typed rows. Payments of a previous
// invoice are excluded.
func (r *ParseResult) ExpenseSum() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range r.Transactions {
		if t.IsExpense() {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// ValidRatio returns the share of transactions that have both a date and a
// non-zero amount.
func (r *ParseResult) ValidRatio() float64 {
	if len(r.Transactions) == 0 {
		return 0
	}
	ok := 0
	for _, t := range r.Transactions {
		if !t.Date.IsZero() && !t.Amount.IsZero() {
			ok++
		}
	}
	return float64(ok) / float64(len(r.Transactions))
}

// MissingDateRatio returns the share of transactions with no date.
func (r *ParseResult) MissingDateRatio() float64 {
	if len(r.Transactions) == 0 {
		return 0
	}
	missing := 0
	for _, t := range r.Transactions {
		if t.Date.IsZero() {
			missing++
		}
	}
	return float64(missing) / float64(len(r.Transactions))
}

// StampDueDate propagates the result's due date onto every transaction.
func (r *ParseResult) StampDueDate() {
	for i := range r.Transactions {
		r.Transactions[i].DueDate = r.DueDate
	}
}

// StructuredInvoice is the remote structured-extraction collaborator's
// output for one document.
type StructuredInvoice struct {
	DueDate      time.Time
	Total        decimal.Decimal
	Transactions []Transaction
}

// ExtractionResult is the pipeline's final output.
type ExtractionResult struct {
	Parse        *ParseResult
	OCRAttempted bool
	Fallback     FallbackDecision
}
