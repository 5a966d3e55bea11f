package parser

import (
	"testing"
	"time"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

const itauSample = `ITAU UNIBANCO S.A.
Cartao Itaucard Visa Platinum
JOAO A SILVA - FINAL 4821
Vencimento: 21/11/2025
Total desta fatura R$ 685,70
Lancamentos da fatura atual
03/11 FARMACIA SAO PAULO 45,90
05/11 MAGAZINELUZA 02/05 189,90
07/11 SUPERMERCADO PAGUE MENOS 245,18
09/11 POSTO IPIRANGA 1234 120,00
10/11 RESTAURANTE CASA NOVA 84,72
12/11 PAGAMENTO EFETUADO -1.500,00
Compras parceladas - proximas faturas
05/12 MAGAZINELUZA 03/05 189,90
SAC Itau 0800 728 0728`

func TestItauStrategy_Parse(t *testing.T) {
	p := &ItauStrategy{}

	if !p.IsApplicable(itauSample) {
		t.Fatal("itau invoice not detected")
	}

	due, ok := p.ExtractDueDate(itauSample)
	if !ok {
		t.Fatal("due date not found")
	}
	want := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("due date: got %v, want %v", due, want)
	}

	txs := p.ExtractTransactions(itauSample)
	if len(txs) != 6 {
		t.Fatalf("transactions: got %d, want 6 (future-cycle row must be excluded)", len(txs))
	}

	first := txs[0]
	if first.Description != "FARMACIA SAO PAULO" {
		t.Errorf("txs[0].Description: got %q", first.Description)
	}
	if first.Amount.String() != "45.9" {
		t.Errorf("txs[0].Amount: got %s", first.Amount.String())
	}
	if first.Type != models.TypeExpense {
		t.Errorf("txs[0].Type: got %q", first.Type)
	}
	if first.Date.Year() != 2025 || first.Date.Month() != time.November {
		t.Errorf("txs[0].Date: got %v", first.Date)
	}
	if first.CardName != "final 4821" || first.HolderName != "JOAO A SILVA" {
		t.Errorf("card header not propagated: card %q holder %q", first.CardName, first.HolderName)
	}
	if first.Category != "saude" {
		t.Errorf("txs[0].Category: got %q", first.Category)
	}

	installment := txs[1]
	if installment.Description != "MAGAZINELUZA" {
		t.Errorf("txs[1].Description: got %q", installment.Description)
	}
	if installment.InstallmentNum != 2 || installment.InstallmentTotal != 5 {
		t.Errorf("txs[1] installment: got %d/%d, want 2/5",
			installment.InstallmentNum, installment.InstallmentTotal)
	}

	payment := txs[5]
	if payment.Type != models.TypePayment {
		t.Errorf("payment row type: got %q, want PAYMENT", payment.Type)
	}
	if payment.Amount.String() != "1500" {
		t.Errorf("payment amount must be positive after typing: got %s", payment.Amount.String())
	}
	if payment.Category != "pagamento" {
		t.Errorf("payment category: got %q", payment.Category)
	}
}

const nubankSample = `Nubank
Nu Pagamentos S.A.
Data de vencimento: 21 NOV 2025
Fatura gerada em 14/11/2025
TRANSACOES
07 NOV Uber *Trip 24,90
08 NOV Ifood *Restaurante 02/03 61,35
10 NOV Pagamento recebido -1.234,56`

func TestNubankStrategy_Parse(t *testing.T) {
	p := &NubankStrategy{}

	if !p.IsApplicable(nubankSample) {
		t.Fatal("nubank invoice not detected")
	}

	due, ok := p.ExtractDueDate(nubankSample)
	if !ok {
		t.Fatal("due date not found")
	}
	want := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("due date: got %v, want %v", due, want)
	}

	txs := p.ExtractTransactions(nubankSample)
	if len(txs) != 3 {
		t.Fatalf("transactions: got %d, want 3", len(txs))
	}
	if txs[0].Description != "Uber *Trip" {
		t.Errorf("txs[0].Description: got %q", txs[0].Description)
	}
	if txs[0].Date.Month() != time.November || txs[0].Date.Year() != 2025 {
		t.Errorf("txs[0].Date: got %v", txs[0].Date)
	}
	if txs[1].InstallmentNum != 2 || txs[1].InstallmentTotal != 3 {
		t.Errorf("txs[1] installment: got %d/%d, want 2/3", txs[1].InstallmentNum, txs[1].InstallmentTotal)
	}
	if txs[2].Type != models.TypePayment {
		t.Errorf("payment row type: got %q", txs[2].Type)
	}
}

func TestBradescoStrategy_FusedDates(t *testing.T) {
	sample := `Bradesco Cartoes
Vencimento 21/11/2025
Data Historico Valor
03/11SUPERMERCADO PAGUE MENOS 245,18
05/11FARMACIA GLOBO 32,50`

	p := &BradescoStrategy{}
	if !p.IsApplicable(sample) {
		t.Fatal("bradesco invoice not detected")
	}

	txs := p.ExtractTransactions(sample)
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2 (fused dates must be split)", len(txs))
	}
	if txs[0].Description != "SUPERMERCADO PAGUE MENOS" {
		t.Errorf("txs[0].Description: got %q", txs[0].Description)
	}
}

func TestSantanderStrategy_RejectsGetnet(t *testing.T) {
	p := &SantanderStrategy{}
	if p.IsApplicable("Getnet Santander comprovante de venda") {
		t.Error("getnet merchant receipts must not be claimed")
	}
	if !p.IsApplicable("Santander Cartoes Vencimento 21/11/2025") {
		t.Error("santander invoice not detected")
	}
}

func TestBBStrategy_PagavelAte(t *testing.T) {
	sample := `Banco do Brasil Ourocard
Pagavel ate 21/11/2025
03/11 RESTAURANTE CASA NOVA 98,50`

	p := &BBStrategy{}
	if !p.IsApplicable(sample) {
		t.Fatal("bb invoice not detected")
	}
	due, ok := p.ExtractDueDate(sample)
	if !ok {
		t.Fatal("due date not found via 'pagavel ate' label")
	}
	if due.Day() != 21 || due.Month() != time.November {
		t.Errorf("due date: got %v", due)
	}
}

func TestInterStrategy_FullMonthNames(t *testing.T) {
	sample := `Banco Inter S.A.
Vencimento: 21 de novembro de 2025
03 de novembro Posto Shell Centro 120,00
05 de novembro Pagamento efetuado -1.500,00`

	p := &InterStrategy{}
	if !p.IsApplicable(sample) {
		t.Fatal("inter invoice not detected")
	}

	due, ok := p.ExtractDueDate(sample)
	if !ok {
		t.Fatal("due date not found")
	}
	want := time.Date(2025, time.November, 21, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("due date: got %v, want %v", due, want)
	}

	txs := p.ExtractTransactions(sample)
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(txs))
	}
	if txs[0].Category != "transporte" {
		t.Errorf("txs[0].Category: got %q", txs[0].Category)
	}
}

func TestC6Strategy_RequiresFullMarker(t *testing.T) {
	p := &C6Strategy{}
	if p.IsApplicable("fatura c6 qualquer coisa") {
		t.Error("bare 'c6' must not be enough to claim a document")
	}
	if !p.IsApplicable("C6 Bank Vencimento 21/11/2025") {
		t.Error("c6 bank invoice not detected")
	}
}

func TestXPStrategy_FullYearRows(t *testing.T) {
	sample := `Cartao XP Visa Infinite
Vencimento 21/11/2025
03/11/2025 RESTAURANTE FASANO 320,00
05/11/2025 Pagamento recebido -3.000,00`

	p := &XPStrategy{}
	if !p.IsApplicable(sample) {
		t.Fatal("xp invoice not detected")
	}
	txs := p.ExtractTransactions(sample)
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(txs))
	}
	if txs[0].Date.Year() != 2025 {
		t.Errorf("txs[0].Date: got %v", txs[0].Date)
	}
}

func TestBTGStrategy_AbbreviatedMonths(t *testing.T) {
	sample := `BTG Pactual
Vencimento: 21 nov. 2025
03 nov. WINE COMERCIO 180,00`

	p := &BTGStrategy{}
	if !p.IsApplicable(sample) {
		t.Fatal("btg invoice not detected")
	}
	due, ok := p.ExtractDueDate(sample)
	if !ok {
		t.Fatal("due date not found")
	}
	if due.Day() != 21 || due.Month() != time.November || due.Year() != 2025 {
		t.Errorf("due date: got %v", due)
	}
	txs := p.ExtractTransactions(sample)
	if len(txs) != 1 {
		t.Fatalf("transactions: got %d, want 1", len(txs))
	}
}

func TestDetectUnsupported_Amex(t *testing.T) {
	err := DetectUnsupported("American Express - The Platinum Card")
	if err == nil {
		t.Fatal("amex must be rejected")
	}
	if err := DetectUnsupported(itauSample); err != nil {
		t.Errorf("itau invoice wrongly rejected: %v", err)
	}
}
