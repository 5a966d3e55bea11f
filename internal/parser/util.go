package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Portuguese month abbreviations as they appear on card invoices.
var monthsPT = map[string]time.Month{
	"jan": time.January, "fev": time.February, "mar": time.March,
	"abr": time.April, "mai": time.May, "jun": time.June,
	"jul": time.July, "ago": time.August, "set": time.September,
	"out": time.October, "nov": time.November, "dez": time.December,
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "ê", "e", "è", "e", "ë", "e",
	"í", "i", "î", "i", "ì", "i",
	"ó", "o", "ô", "o", "õ", "o", "ò", "o", "ö", "o",
	"ú", "u", "û", "u", "ù", "u", "ü", "u",
	"ç", "c",
	"Á", "A", "À", "A", "Â", "A", "Ã", "A", "Ä", "A",
	"É", "E", "Ê", "E", "È", "E", "Ë", "E",
	"Í", "I", "Î", "I", "Ì", "I",
	"Ó", "O", "Ô", "O", "Õ", "O", "Ò", "O", "Ö", "O",
	"Ú", "U", "Û", "U", "Ù", "U", "Ü", "U",
	"Ç", "C",
)

// stripAccents folds accented characters to their ASCII base. Renderers
// drop accents inconsistently, so matching always happens on the folded
// form.
func stripAccents(s string) string {
	return accentReplacer.Replace(s)
}

// normalizeKey lowers, de-accents and de-NBSPs text for marker matching.
func normalizeKey(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.ToLower(stripAccents(s))
}

// spacedDatePattern matches dates whose digits picked up stray spacing
// during rendering, e.g. "2 1/11/2 025".
var spacedDatePattern = regexp.MustCompile(`\b\d(?: ?\d)?\s*/\s*\d(?: ?\d)?\s*/\s*\d(?: ?\d){1,3}\b`)

// collapseSpacedDates removes injected whitespace inside date tokens.
func collapseSpacedDates(s string) string {
	return spacedDatePattern.ReplaceAllStringFunc(s, func(m string) string {
		return strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, m)
	})
}

// normalizeText prepares raw extracted text for pattern matching: folded
// case and accents, NBSP squashed, date digits re-joined.
func normalizeText(s string) string {
	return collapseSpacedDates(normalizeKey(s))
}

// parseAmountBR converts Brazilian-formatted amounts ("1.234,56",
// "R$ 1.234,56", "-58,90") to a decimal.
func parseAmountBR(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}
	if strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSuffix(s, "-")
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// fullDatePattern matches fully-qualified dd/mm/yyyy dates.
var fullDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

// parseDateSlash parses dd/mm/yyyy or dd/mm/yy.
func parseDateSlash(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// inferYear builds a date for a day/month pair using ref's year, stepping
// back one year when the resulting date would land more than two months
// after ref. Invoice rows always precede the due date.
func inferYear(day int, month time.Month, ref time.Time) time.Time {
	if ref.IsZero() {
		ref = time.Now().UTC()
	}
	d := time.Date(ref.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if d.After(ref.AddDate(0, 2, 0)) {
		d = d.AddDate(-1, 0, 0)
	}
	return d
}

// parseDayMonthPT parses "07 nov" / "07 de nov" row dates, inferring the
// year from ref.
func parseDayMonthPT(day, mon string, ref time.Time) (time.Time, bool) {
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	m, ok := monthsPT[strings.ToLower(stripAccents(strings.TrimSpace(mon)))[:3]]
	if !ok {
		return time.Time{}, false
	}
	return inferYear(d, m, ref), true
}

// latestFullDate returns the most recent dd/mm/yyyy date found anywhere in
// the text. Used to infer the year for dd/mm labels.
func latestFullDate(text string) (time.Time, bool) {
	var latest time.Time
	for _, m := range fullDatePattern.FindAllStringSubmatch(text, -1) {
		if d, ok := parseDateSlash(m[0]); ok && d.After(latest) {
			latest = d
		}
	}
	return latest, !latest.IsZero()
}

// installmentPattern matches "02/05", "2 de 5" and "parcela 2/5" markers
// appended to purchase descriptions.
var installmentPattern = regexp.MustCompile(`(?i)(?:parcela\s*)?\b(\d{1,2})\s*(?:/|de)\s*(\d{1,2})\b\s*$`)

// parseInstallment extracts a trailing installment pair from a description,
// returning the cleaned description. A pair whose current exceeds its total
// (like the date 14/02) cannot be an installment and is left alone. An
// ambiguous pair like 02/05 is read as an installment; that is how issuers
// print them on purchase rows.
func parseInstallment(desc string) (cur, total int, cleaned string) {
	m := installmentPattern.FindStringSubmatch(desc)
	if m == nil {
		return 0, 0, desc
	}
	cur, _ = strconv.Atoi(m[1])
	total, _ = strconv.Atoi(m[2])
	if cur == 0 || total == 0 || cur > total {
		return 0, 0, desc
	}
	cleaned = strings.TrimSpace(strings.TrimSuffix(desc, m[0]))
	if cleaned == "" {
		return 0, 0, desc
	}
	return cur, total, cleaned
}

// lastFourPattern finds a card's last four digits near "final"/"cartao"
// wording, e.g. "CARTAO FINAL 4821".
var lastFourPattern = regexp.MustCompile(`(?i)(?:final|cart[aã]o(?:\s+\w+){0,3}?)\s+(\d{4})\b`)

// FindCardLastFour recovers the card's last four digits, if present.
func FindCardLastFour(text string) string {
	m := lastFourPattern.FindStringSubmatch(stripAccents(text))
	if m == nil {
		return ""
	}
	return m[1]
}

// containsMarker reports whether the folded text contains any marker.
// Markers must be given pre-folded (lowercase, no accents).
func containsMarker(text string, markers ...string) bool {
	folded := normalizeKey(text)
	for _, m := range markers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}

// futureSectionHeaders mark the start of next-cycle installment listings.
// Rows under them belong to future invoices and must be skipped.
var futureSectionHeaders = []string{
	"proximas faturas",
	"lancamentos futuros",
	"compras parceladas - proximas",
	"parcelamento de faturas futuras",
}

// isFutureSectionHeader reports whether a (folded) line opens a
// next-cycle section.
func isFutureSectionHeader(foldedLine string) bool {
	for _, h := range futureSectionHeaders {
		if strings.Contains(foldedLine, h) {
			return true
		}
	}
	return false
}

// paymentMarkers identify rows that settle a previous invoice rather than
// record a purchase.
var paymentMarkers = []string{
	"pagamento recebido",
	"pagamento efetuado",
	"pagamento em",
	"pagto deb automatico",
	"pagamento de fatura",
}

// isPaymentDescription reports whether a row is a previous-invoice payment.
func isPaymentDescription(desc string) bool {
	folded := normalizeKey(desc)
	for _, m := range paymentMarkers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}
