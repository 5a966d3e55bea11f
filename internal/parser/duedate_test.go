package parser

import (
	"testing"
	"time"
)

func TestResolveDueDate_FullDate(t *testing.T) {
	d, ok := ResolveDueDate("Data de Vencimento: 21/11/2025")
	if !ok {
		t.Fatal("expected a due date")
	}
	want := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("got %v, want %v", d, want)
	}
}

func TestResolveDueDate_ShortDateInfersYear(t *testing.T) {
	text := `Fatura emitida em 05/11/2025
Vencimento: 21/11
Total a pagar R$ 1.000,00`

	d, ok := ResolveDueDate(text)
	if !ok {
		t.Fatal("expected a due date")
	}
	want := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("got %v, want %v", d, want)
	}
}

func TestResolveDueDate_ShortDateAcrossYearBoundary(t *testing.T) {
	// Invoice issued in December, due in January: the inferred year must
	// roll forward.
	text := `Fatura emitida em 20/12/2025
Vencimento: 05/01`

	d, ok := ResolveDueDate(text)
	if !ok {
		t.Fatal("expected a due date")
	}
	want := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("got %v, want %v", d, want)
	}
}

func TestResolveDueDate_TextualMonth(t *testing.T) {
	d, ok := ResolveDueDate("Vencimento: 21 de novembro de 2025")
	if !ok {
		t.Fatal("expected a due date")
	}
	want := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("got %v, want %v", d, want)
	}
}

func TestResolveDueDate_DigitRun(t *testing.T) {
	// Separators lost entirely; the last-resort heuristic reads ddmmyyyy.
	d, ok := ResolveDueDate("vencimento 21112025")
	if !ok {
		t.Fatal("expected a due date")
	}
	want := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("got %v, want %v", d, want)
	}
}

func TestResolveDueDate_SpacedDigits(t *testing.T) {
	// Renderer injected spaces into the date token.
	d, ok := ResolveDueDate("Vencimento: 2 1/11/2 025")
	if !ok {
		t.Fatal("expected a due date")
	}
	want := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("got %v, want %v", d, want)
	}
}

func TestResolveDueDate_NoLabel(t *testing.T) {
	if _, ok := ResolveDueDate("SUPERMERCADO 03/11 245,18"); ok {
		t.Error("a bare row date must not be mistaken for a due date")
	}
}
