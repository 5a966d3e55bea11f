package parser

import (
	"regexp"
	"strconv"
	"time"
)

// Generic due-date extraction, applied when the chosen strategy could not
// find one itself. Each heuristic is independently testable and they run in
// a fixed order; new issuer quirks get appended without touching the
// existing ones.

// Labels vary by issuer: "vencimento", "data de vencimento", "vencimento da
// fatura", "pagavel ate". All matching happens on folded text.
const dueLabelExpr = `(?:data\s+de\s+)?(?:vencimento|pagavel\s+ate|vence\s+em)`

var (
	dueLabelFullDate  = regexp.MustCompile(dueLabelExpr + `\D{0,30}?(\d{1,2})/(\d{1,2})/(\d{4})`)
	dueLabelShortDate = regexp.MustCompile(dueLabelExpr + `\D{0,30}?(\d{1,2})/(\d{1,2})(?:\D|$)`)
	dueLabelTextMonth = regexp.MustCompile(dueLabelExpr + `\D{0,30}?(\d{1,2})\s*(?:de\s*)?(jan|fev|mar|abr|mai|jun|jul|ago|set|out|nov|dez)[a-z]*\.?\s*(?:de\s*)?(\d{4})?`)
	dueLabelDigitRun  = regexp.MustCompile(dueLabelExpr + `\D{0,40}?(\d{8})\b`)
)

type dueDateHeuristic func(folded string) (time.Time, bool)

var dueDateHeuristics = []dueDateHeuristic{
	dueDateFromFullDate,
	dueDateFromShortDate,
	dueDateFromTextMonth,
	dueDateFromDigitRun,
}

// ResolveDueDate applies the heuristic cascade to raw extracted text.
func ResolveDueDate(text string) (time.Time, bool) {
	folded := normalizeText(text)
	for _, h := range dueDateHeuristics {
		if d, ok := h(folded); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// dueDateFromFullDate: label-adjacent dd/mm/yyyy.
func dueDateFromFullDate(folded string) (time.Time, bool) {
	m := dueLabelFullDate.FindStringSubmatch(folded)
	if m == nil {
		return time.Time{}, false
	}
	return buildDate(m[1], m[2], m[3])
}

// dueDateFromShortDate: label-adjacent dd/mm with the year inferred from
// any fully-qualified date elsewhere in the document.
func dueDateFromShortDate(folded string) (time.Time, bool) {
	m := dueLabelShortDate.FindStringSubmatch(folded)
	if m == nil {
		return time.Time{}, false
	}
	ref, ok := latestFullDate(folded)
	if !ok {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(m[1])
	month, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(ref.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// A due date sits at or shortly after the other dates in the document.
	if d.Before(ref.AddDate(0, -6, 0)) {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

// dueDateFromTextMonth: label-adjacent "21 de novembro de 2025" or
// "21 nov 2025".
func dueDateFromTextMonth(folded string) (time.Time, bool) {
	m := dueLabelTextMonth.FindStringSubmatch(folded)
	if m == nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	month, ok := monthsPT[m[2]]
	if !ok {
		return time.Time{}, false
	}
	if m[3] != "" {
		year, err := strconv.Atoi(m[3])
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
	}
	ref, ok := latestFullDate(folded)
	if !ok {
		return time.Time{}, false
	}
	d := time.Date(ref.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if d.Before(ref.AddDate(0, -6, 0)) {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

// dueDateFromDigitRun: last resort, 8 consecutive digits near the label
// read as ddmmyyyy. Catches dates whose separators were lost entirely.
func dueDateFromDigitRun(folded string) (time.Time, bool) {
	m := dueLabelDigitRun.FindStringSubmatch(folded)
	if m == nil {
		return time.Time{}, false
	}
	run := m[1]
	return buildDate(run[0:2], run[2:4], run[4:8])
}

func buildDate(dayS, monthS, yearS string) (time.Time, bool) {
	day, err1 := strconv.Atoi(dayS)
	month, err2 := strconv.Atoi(monthS)
	year, err3 := strconv.Atoi(yearS)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 2000 || year > 2100 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
