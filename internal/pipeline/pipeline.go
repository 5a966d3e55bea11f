// Package pipeline owns the end-to-end extraction control flow: text-layer
// extraction, parser selection, a one-shot OCR retry driven by independent
// triggers, quality scoring, external-service fallback arbitration, and the
// final validation gate.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/invoice-extractor/internal/common"
	"github.com/insightdelivered/invoice-extractor/internal/config"
	"github.com/insightdelivered/invoice-extractor/internal/extractor"
	"github.com/insightdelivered/invoice-extractor/internal/models"
	"github.com/insightdelivered/invoice-extractor/internal/parser"
	"github.com/insightdelivered/invoice-extractor/internal/quality"
)

// TextExtractor recovers the document's embedded text layer.
type TextExtractor interface {
	Extract(data []byte, password string) (string, error)
	ExtractSorted(data []byte, password string) (string, error)
}

// OCRPerformer recovers text by rasterizing and visually reading the pages.
type OCRPerformer interface {
	Available() bool
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExternalExtractor is the higher-cost remote extraction service consulted
// as a second opinion on low-confidence results.
type ExternalExtractor interface {
	Available() bool
	Extract(ctx context.Context, data []byte) (string, error)
}

// ocrState makes the one-shot OCR budget explicit. It is threaded through
// the run rather than captured by closures so "attempted vs. not" is a
// checked value, not a scattering of booleans.
type ocrState int

const (
	ocrIdle ocrState = iota
	ocrSpent
)

// retryTrigger names the condition that fired the re-extraction. The hard
// triggers mean the local text produced nothing usable, so a failed OCR is
// fatal for them; the soft triggers keep the local result on OCR failure.
type retryTrigger string

const (
	triggerNone           retryTrigger = ""
	triggerNoSignal       retryTrigger = "no-signal"
	triggerNoTransactions retryTrigger = "no-transactions"
	triggerNoDueDate      retryTrigger = "no-due-date"
	triggerGarbled        retryTrigger = "garbled"
	triggerReconciliation retryTrigger = "reconciliation"
	triggerParseFailure   retryTrigger = "parse-failure"
)

func (t retryTrigger) hard() bool {
	return t == triggerNoSignal || t == triggerNoTransactions || t == triggerParseFailure
}

// Pipeline orchestrates one extraction per call. It is stateless across
// invocations and safe for concurrent use.
type Pipeline struct {
	cfg        *config.Config
	log        *slog.Logger
	text       TextExtractor
	ocr        OCRPerformer
	external   ExternalExtractor
	strategies []parser.Strategy
}

// New assembles a pipeline. ocr and external may be nil, degrading the
// corresponding tiers to "unavailable".
func New(cfg *config.Config, logger *slog.Logger, text TextExtractor, ocr OCRPerformer, external ExternalExtractor, strategies []parser.Strategy) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		log:        logger,
		text:       text,
		ocr:        ocr,
		external:   external,
		strategies: strategies,
	}
}

// Extract runs the full pipeline over one document. dueDateOverride, when
// non-zero, is used only if no due date can be resolved from the document
// itself; with no override and no resolvable date the invocation fails
// rather than guess a billing period.
func (p *Pipeline) Extract(ctx context.Context, doc []byte, password string, dueDateOverride time.Time) (*models.ExtractionResult, error) {
	log := p.log.With("invocation", uuid.NewString())

	text, err := p.text.Extract(doc, password)
	if err != nil {
		return nil, err
	}

	state := ocrIdle
	var local *models.ParseResult

	if !extractor.HasMinimumSignal(text, p.cfg.MinTextLength) {
		// Trigger 1: the text layer is blank or unusable. OCR is the only
		// way forward, so its failure is fatal here.
		log.Info("text layer below minimum signal, escalating to ocr", "textLen", len(text))
		ocrText, oerr := p.runOCR(ctx, doc, &state)
		if oerr != nil {
			return nil, oerr
		}
		local, err = p.parseText(ctx, doc, ocrText, models.SourceOCR)
		if err != nil {
			if common.IsInputError(err) {
				return nil, err
			}
			// OCR text was the only representation; a parse failure here
			// means the document produced nothing usable.
			log.Warn("ocr text parse failed", "error", err)
			return nil, common.NewInputError(common.ErrMissingDueDate)
		}
	} else {
		local, err = p.parseText(ctx, doc, text, models.SourceTextLayer)
		if err != nil {
			if common.IsInputError(err) {
				return nil, err
			}
			// Trigger 5: the parse itself blew up on this layout.
			log.Warn("text layer parse failed", "error", err)
		}

		if trigger := p.retryTrigger(local); trigger != triggerNone {
			local, err = p.retry(ctx, log, doc, password, local, trigger, &state)
			if err != nil {
				return nil, err
			}
		}
	}

	if local == nil {
		return nil, common.NewInputError(common.ErrMissingDueDate)
	}

	local.Score = quality.Evaluate(local, p.thresholds())
	log.Info("local result scored",
		"issuer", local.Issuer, "source", local.Source,
		"score", local.Score, "transactions", len(local.Transactions))

	decision := models.DecisionNone
	if local.Score < p.cfg.HighQualityScore && p.external != nil && p.external.Available() {
		external := p.tryExternal(ctx, log, doc)
		local, decision = Decide(local, external, p.cfg.ExternalPreferMargin, p.cfg.LocalStickinessMargin)
		log.Info("fallback arbitration settled", "decision", decision, "score", local.Score)
	}

	if local.DueDate.IsZero() {
		if dueDateOverride.IsZero() {
			return nil, common.NewInputError(common.ErrMissingDueDate)
		}
		log.Info("using caller-supplied due date", "dueDate", dueDateOverride.Format("2006-01-02"))
		local.DueDate = dueDateOverride
		local.Score = quality.Evaluate(local, p.thresholds())
	}

	local.StampDueDate()
	if err := quality.Validate(local, p.cfg.MinScore, p.cfg.MinTransactions); err != nil {
		return nil, err
	}

	return &models.ExtractionResult{
		Parse:        local,
		OCRAttempted: state == ocrSpent,
		Fallback:     decision,
	}, nil
}

// parseText runs issuer rejection, strategy selection and result assembly
// over one text representation. Strategy panics surface as plain errors so
// the caller can convert them into a retry trigger.
func (p *Pipeline) parseText(ctx context.Context, doc []byte, text string, source models.TextSource) (res *models.ParseResult, err error) {
	if derr := parser.DetectUnsupported(text); derr != nil {
		return nil, derr
	}

	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			err = fmt.Errorf("strategy panic: %v", rec)
		}
	}()

	cand := parser.Select(p.strategies, text)
	if cand.Strategy == nil {
		return nil, fmt.Errorf("no parser strategies configured")
	}

	// Document-aware strategies hand the whole invoice to their remote
	// collaborator first; its failure degrades silently to the pattern pass.
	if ds, ok := cand.Strategy.(parser.DocumentStrategy); ok && cand.Applicable {
		r, derr := ds.ParseWithDocument(ctx, doc, text)
		switch {
		case derr != nil:
			p.log.Warn("document-level extraction failed, using pattern pass",
				"issuer", cand.Strategy.Issuer(), "error", derr)
		case r != nil:
			r.Source = source
			p.fillGaps(r, text)
			return r, nil
		}
	}

	r := &models.ParseResult{
		Issuer:       cand.Strategy.Issuer(),
		DueDate:      cand.DueDate,
		Transactions: cand.Transactions,
		Source:       source,
		RawText:      text,
	}
	p.fillGaps(r, text)
	return r, nil
}

// fillGaps completes a parse result from the generic extractors: due-date
// cascade, declared total (or expense sum when none is printed), last four.
func (p *Pipeline) fillGaps(r *models.ParseResult, text string) {
	if r.DueDate.IsZero() {
		if d, ok := parser.ResolveDueDate(text); ok {
			r.DueDate = d
		}
	}
	if !r.Total.IsPositive() {
		if total, ok := parser.FindDeclaredTotal(text); ok {
			r.Total = total
		} else {
			r.Total = r.ExpenseSum()
		}
	}
	if r.CardLastFour == "" {
		r.CardLastFour = parser.FindCardLastFour(text)
	}
}

// retryTrigger inspects the text-layer result for the conditions that fire
// a re-extraction. Order matters: earlier triggers describe worse failures.
func (p *Pipeline) retryTrigger(local *models.ParseResult) retryTrigger {
	if local == nil {
		return triggerParseFailure
	}
	if len(local.Transactions) == 0 {
		return triggerNoTransactions
	}
	if local.DueDate.IsZero() {
		// The label may only be legible on the rendered page. The caller's
		// override (if any) is applied later, so this stays soft.
		return triggerNoDueDate
	}
	if parser.GarbledShare(local.Transactions) > p.cfg.MaxGarbledRatio ||
		parser.MostlyMissingDates(local.Transactions) {
		return triggerGarbled
	}
	if parser.BelowDeclaredTotal(local.Total, local.ExpenseSum(), p.cfg.ReconciliationRatio) {
		return triggerReconciliation
	}
	return triggerNone
}

// retry performs the one re-extraction the trigger asks for. Issuers on the
// OCR-skip list get a position-sorted re-read for the reconciliation
// trigger and no retry otherwise; everything else goes through OCR.
func (p *Pipeline) retry(ctx context.Context, log *slog.Logger, doc []byte, password string, local *models.ParseResult, trigger retryTrigger, state *ocrState) (*models.ParseResult, error) {
	skip := local != nil && p.cfg.SkipsOCR(string(local.Issuer))

	if skip {
		if trigger != triggerReconciliation {
			log.Info("issuer on ocr-skip list, keeping text-layer result",
				"issuer", local.Issuer, "trigger", trigger)
			return local, nil
		}
		log.Info("expense sum below declared total, re-reading text layer in sorted order",
			"issuer", local.Issuer)
		sorted, serr := p.text.ExtractSorted(doc, password)
		if serr != nil {
			log.Warn("sorted re-read failed, keeping text-layer result", "error", serr)
			return local, nil
		}
		retried, perr := p.parseText(ctx, doc, sorted, models.SourceTextLayerSorted)
		if perr != nil {
			log.Warn("sorted re-read parse failed, keeping text-layer result", "error", perr)
			return local, nil
		}
		return p.chooseRetried(local, retried, trigger), nil
	}

	log.Info("re-extracting with ocr", "trigger", trigger)
	ocrText, oerr := p.runOCR(ctx, doc, state)
	if oerr != nil {
		if trigger.hard() {
			return nil, oerr
		}
		log.Warn("ocr retry unavailable, keeping text-layer result", "trigger", trigger, "error", oerr)
		return local, nil
	}

	retried, perr := p.parseText(ctx, doc, ocrText, models.SourceOCR)
	if perr != nil {
		if common.IsInputError(perr) {
			return nil, perr
		}
		if trigger.hard() && local == nil {
			return nil, common.NewInputError(common.ErrMissingDueDate)
		}
		log.Warn("ocr parse failed, keeping text-layer result", "error", perr)
		return local, nil
	}
	return p.chooseRetried(local, retried, trigger), nil
}

// chooseRetried picks between the original and the retried result. For the
// reconciliation trigger the retried result must actually get closer to the
// declared total without losing rows; for the other triggers the higher
// scoring result wins, retried on ties.
func (p *Pipeline) chooseRetried(local, retried *models.ParseResult, trigger retryTrigger) *models.ParseResult {
	if local == nil {
		return retried
	}
	if retried == nil {
		return local
	}

	if trigger == triggerReconciliation {
		declared := local.Total
		oldGap := declared.Sub(local.ExpenseSum()).Abs()
		newGap := declared.Sub(retried.ExpenseSum()).Abs()
		if newGap.LessThan(oldGap) && len(retried.Transactions) >= len(local.Transactions) {
			return retried
		}
		return local
	}

	if quality.Evaluate(retried, p.thresholds()) >= quality.Evaluate(local, p.thresholds()) {
		return retried
	}
	return local
}

// runOCR spends the invocation's single OCR attempt. The budget is consumed
// even when the attempt fails, so no later trigger can fire OCR again.
func (p *Pipeline) runOCR(ctx context.Context, doc []byte, state *ocrState) (string, error) {
	if *state != ocrIdle {
		return "", fmt.Errorf("ocr already attempted in this invocation")
	}
	*state = ocrSpent

	if !p.cfg.OCREnabled {
		return "", common.NewConfigError(common.ErrOCRDisabled)
	}
	if p.ocr == nil || !p.ocr.Available() {
		return "", common.NewConfigError(common.ErrOCRUnavailable)
	}
	return p.ocr.Extract(ctx, doc)
}

// tryExternal consults the external extraction service and parses its text.
// Every failure is non-fatal; nil means "no second opinion".
func (p *Pipeline) tryExternal(ctx context.Context, log *slog.Logger, doc []byte) *models.ParseResult {
	text, err := p.external.Extract(ctx, doc)
	if err != nil {
		log.Warn("external extraction service failed", "error", err)
		return nil
	}
	res, err := p.parseText(ctx, doc, text, models.SourceExternal)
	if err != nil || res == nil {
		log.Warn("external extraction text did not parse", "error", err)
		return nil
	}
	res.Score = quality.Evaluate(res, p.thresholds())
	return res
}

func (p *Pipeline) thresholds() quality.Thresholds {
	return quality.Thresholds{
		MinTextLength:       p.cfg.MinTextLength,
		MinTransactions:     p.cfg.MinTransactions,
		LowTransactionCount: p.cfg.LowTransactionCount,
		MaxGarbledRatio:     p.cfg.MaxGarbledRatio,
	}
}
