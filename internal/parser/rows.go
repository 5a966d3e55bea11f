package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// Shared row scanners for the two row shapes that recur across issuers:
// "dd/mm  DESCRIPTION  1.234,56" and "dd MMM  DESCRIPTION  1.234,56".
// Issuer strategies own their markers, due-date labels and quirks; the
// scanners own section tracking, card headers, payment typing, installment
// markers and category labeling.

// "03/11  FARMACIA SAO PAULO  45,90" (optional year, optional R$, optional
// trailing minus).
var slashRowPattern = regexp.MustCompile(
	`^(\d{1,2}/\d{1,2})(/\d{4})?\s+(.+?)\s+(-?\s?(?:R\$\s*)?[\d.]+,\d{2}-?)\s*$`)

// "07 NOV  Uber *Trip  24,90" / "03 de novembro  Posto Shell  R$ 120,00".
var dayMonthRowPattern = regexp.MustCompile(
	`(?i)^(\d{1,2})\s+(?:de\s+)?([a-zç]{3,9})\.?\s+(.+?)\s+(-?\s?(?:R\$\s*)?[\d.]+,\d{2}-?)\s*$`)

// "JOAO A SILVA - FINAL 4821" / "CARTAO ADICIONAL — MARIA SILVA FINAL 1034".
var cardHeaderPattern = regexp.MustCompile(
	`(?i)^([a-zà-ÿ][a-zà-ÿ .]{3,40}?)\s*[-–—]?\s*(?:cart[aã]o\s*)?final\s*(\d{4})\s*$`)

// Main-section headers that close a future-installments block.
var currentSectionHeaders = []string{
	"lancamentos",
	"movimentacoes",
	"transacoes",
	"despesas",
}

type rowScanner struct {
	ref time.Time // due date or other in-cycle reference for year inference

	inFuture   bool
	cardName   string
	holderName string
}

func (s *rowScanner) trackSections(foldedLine string) bool {
	if isFutureSectionHeader(foldedLine) {
		s.inFuture = true
		return true
	}
	if s.inFuture {
		for _, h := range currentSectionHeaders {
			if strings.Contains(foldedLine, h) {
				s.inFuture = false
				return true
			}
		}
		return true
	}
	return false
}

func (s *rowScanner) trackCardHeader(line string) bool {
	m := cardHeaderPattern.FindStringSubmatch(stripAccents(line))
	if m == nil {
		return false
	}
	s.holderName = strings.TrimSpace(m[1])
	s.cardName = "final " + m[2]
	return true
}

func (s *rowScanner) build(date time.Time, desc, amount string) (models.Transaction, bool) {
	amt, err := parseAmountBR(amount)
	if err != nil || amt.IsZero() {
		return models.Transaction{}, false
	}

	desc = strings.TrimSpace(desc)
	payment := isPaymentDescription(desc)

	var cur, total int
	if !payment {
		// Payment rows never carry installment markers; a trailing pair
		// there is a date ("PAGAMENTO EM 05/11").
		cur, total, desc = parseInstallment(desc)
	}

	tx := models.Transaction{
		Description:      desc,
		Amount:           amt,
		Type:             models.TypeExpense,
		Date:             date,
		CardName:         s.cardName,
		HolderName:       s.holderName,
		InstallmentNum:   cur,
		InstallmentTotal: total,
	}
	if payment {
		tx.Type = models.TypePayment
		tx.Amount = amt.Abs()
		tx.Category = "pagamento"
	} else {
		tx.Category = Categorize(desc)
	}
	return tx, tx.Valid()
}

// scanSlashRows extracts "dd/mm[/yyyy] description amount" rows.
func scanSlashRows(text string, ref time.Time) []models.Transaction {
	s := rowScanner{ref: ref}
	var txs []models.Transaction

	for _, raw := range strings.Split(collapseSpacedDates(text), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		folded := normalizeKey(line)
		if s.trackSections(folded) {
			continue
		}
		if s.trackCardHeader(line) {
			continue
		}

		m := slashRowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		var date time.Time
		if m[2] != "" {
			if d, ok := parseDateSlash(m[1] + m[2]); ok {
				date = d
			}
		} else {
			parts := strings.Split(m[1], "/")
			if d, ok := parseDateSlash(m[1] + "/" + yearFor(parts, s.ref)); ok {
				date = d
			}
		}

		if tx, ok := s.build(date, m[3], m[4]); ok {
			txs = append(txs, tx)
		}
	}
	return txs
}

// scanDayMonthRows extracts "dd MMM description amount" rows (Portuguese
// month names or abbreviations).
func scanDayMonthRows(text string, ref time.Time) []models.Transaction {
	s := rowScanner{ref: ref}
	var txs []models.Transaction

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		folded := normalizeKey(line)
		if s.trackSections(folded) {
			continue
		}
		if s.trackCardHeader(line) {
			continue
		}

		m := dayMonthRowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		date, ok := parseDayMonthPT(m[1], stripAccents(m[2]), s.ref)
		if !ok {
			// Not a month word ("12 x Loja" style); skip the line.
			continue
		}

		if tx, ok := s.build(date, m[3], m[4]); ok {
			txs = append(txs, tx)
		}
	}
	return txs
}

// yearFor picks the year for a dd/mm row date from the reference date,
// stepping back a year across the January boundary.
func yearFor(dayMonth []string, ref time.Time) string {
	if ref.IsZero() {
		ref = time.Now().UTC()
	}
	if len(dayMonth) == 2 {
		if d, ok := parseDateSlash(dayMonth[0] + "/" + dayMonth[1] + "/2000"); ok {
			inferred := inferYear(d.Day(), d.Month(), ref)
			return inferred.Format("2006")
		}
	}
	return ref.Format("2006")
}
