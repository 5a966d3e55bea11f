package parser

import (
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Candidate is one strategy's extraction over one text representation.
type Candidate struct {
	Strategy     Strategy
	Applicable   bool
	DueDate      time.Time
	HasDueDate   bool
	Transactions []models.Transaction
	priority     int
}

// Select scores every strategy against the text and returns the single best
// candidate. Selection is deterministic for a given text and strategy list:
// among applicable strategies, a non-nil due date wins, then a higher
// transaction count, then priority-list order. When no strategy is
// applicable, the highest-priority strategy is still returned as a
// best-effort candidate so the pipeline can attempt quality-driven recovery
// instead of failing outright.
func Select(strategies []Strategy, text string) Candidate {
	if len(strategies) == 0 {
		return Candidate{}
	}

	var best *Candidate
	for i, s := range strategies {
		if !s.IsApplicable(text) {
			continue
		}
		c := evaluate(s, text, i)
		if best == nil || betterThan(c, *best) {
			cc := c
			best = &cc
		}
	}
	if best != nil {
		return *best
	}

	// Nothing matched; fall back to the highest-priority strategy so the
	// rest of the pipeline still has something to score.
	c := evaluate(strategies[0], text, 0)
	c.Applicable = false
	return c
}

func evaluate(s Strategy, text string, priority int) Candidate {
	due, hasDue := s.ExtractDueDate(text)
	return Candidate{
		Strategy:     s,
		Applicable:   true,
		DueDate:      due,
		HasDueDate:   hasDue,
		Transactions: s.ExtractTransactions(text),
		priority:     priority,
	}
}

// betterThan orders candidates: due date presence, then transaction count,
// then earlier priority.
func betterThan(a, b Candidate) bool {
	if a.HasDueDate != b.HasDueDate {
		return a.HasDueDate
	}
	if len(a.Transactions) != len(b.Transactions) {
		return len(a.Transactions) > len(b.Transactions)
	}
	return a.priority < b.priority
}
