package parser

import (
	"testing"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

func TestScanSlashRows_PaymentRowKeepsTrailingDate(t *testing.T) {
	ref := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	text := `12/11 PAGAMENTO EFETUADO EM 05/11 -1.500,00
05/11 MAGAZINELUZA 02/05 189,90`

	txs := scanSlashRows(text, ref)
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(txs))
	}

	payment := txs[0]
	if payment.Type != models.TypePayment {
		t.Fatalf("payment row type: got %q, want PAYMENT", payment.Type)
	}
	// The trailing 05/11 is the settlement date, not an installment marker.
	if payment.Description != "PAGAMENTO EFETUADO EM 05/11" {
		t.Errorf("payment description: got %q", payment.Description)
	}
	if payment.InstallmentNum != 0 || payment.InstallmentTotal != 0 {
		t.Errorf("payment installment: got %d/%d, want 0/0",
			payment.InstallmentNum, payment.InstallmentTotal)
	}

	purchase := txs[1]
	if purchase.Description != "MAGAZINELUZA" {
		t.Errorf("purchase description: got %q", purchase.Description)
	}
	if purchase.InstallmentNum != 2 || purchase.InstallmentTotal != 5 {
		t.Errorf("purchase installment: got %d/%d, want 2/5",
			purchase.InstallmentNum, purchase.InstallmentTotal)
	}
}

func TestScanSlashRows_CardHeaderSections(t *testing.T) {
	ref := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	text := `JOAO A SILVA - FINAL 4821
03/11 FARMACIA SAO PAULO 45,90
Compras parceladas - proximas faturas
05/12 MAGAZINELUZA 03/05 189,90
Lancamentos da fatura atual
MARIA SILVA FINAL 1034
07/11 POSTO IPIRANGA 1234 120,00`

	txs := scanSlashRows(text, ref)
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2 (future-cycle row excluded)", len(txs))
	}
	if txs[0].CardName != "final 4821" || txs[0].HolderName != "JOAO A SILVA" {
		t.Errorf("first card header: card %q holder %q", txs[0].CardName, txs[0].HolderName)
	}
	if txs[1].CardName != "final 1034" || txs[1].HolderName != "MARIA SILVA" {
		t.Errorf("second card header: card %q holder %q", txs[1].CardName, txs[1].HolderName)
	}
}
