package parser

import (
	"testing"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

func TestIsGarbledDescription(t *testing.T) {
	tests := []struct {
		desc string
		want bool
	}{
		// Font-mapping damage: long tokens laced with digits.
		{"XK9RRQ2025BZ1LMA", true},
		// Vowelless long runs.
		{"QWRTPSDFGHJKLZXC", true},
		// Normal merchants.
		{"FARMACIA SAO PAULO", false},
		{"SUPERMERCADO PAGUE MENOS", false},
		// Known-good tokens with digits stay exempt.
		{"UBER X8821ZL9Q441", false},
		{"99APP 9921ABCDE4411", false},
		{"IFOOD PEDIDO 99ZZ12341", false},
	}

	for _, tt := range tests {
		if got := IsGarbledDescription(tt.desc); got != tt.want {
			t.Errorf("IsGarbledDescription(%q): got %v, want %v", tt.desc, got, tt.want)
		}
	}
}

func TestGarbledShare(t *testing.T) {
	txs := []models.Transaction{
		{Description: "FARMACIA SAO PAULO"},
		{Description: "XK9RRQ2025BZ1LMA"},
	}
	if got := GarbledShare(txs); got != 0.5 {
		t.Errorf("GarbledShare: got %v, want 0.5", got)
	}
	if got := GarbledShare(nil); got != 0 {
		t.Errorf("GarbledShare(nil): got %v, want 0", got)
	}
}

func TestMostlyMissingDates(t *testing.T) {
	dated := models.Transaction{Date: time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)}
	undated := models.Transaction{}

	if MostlyMissingDates([]models.Transaction{dated, undated}) {
		t.Error("exactly half missing is not a majority")
	}
	if !MostlyMissingDates([]models.Transaction{dated, undated, undated}) {
		t.Error("two of three missing is a majority")
	}
}
