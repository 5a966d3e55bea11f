// Package writer renders a validated extraction result for downstream
// bookkeeping tools.
package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// csvRow is the flat export shape. Amounts keep the decimal's exact string
// form; dates are ISO-8601 or empty when the row's date was unrecoverable.
type csvRow struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Category    string `csv:"category"`
	Type        string `csv:"type"`
	Amount      string `csv:"amount"`
	Installment string `csv:"installment"`
	Card        string `csv:"card"`
	Holder      string `csv:"holder"`
	DueDate     string `csv:"due_date"`
}

// CSVWriter writes transactions as CSV.
type CSVWriter struct{}

// WriteToFile writes the result to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, res *models.ParseResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()
	return w.Write(f, res)
}

// Write renders the result's transactions to out.
func (w *CSVWriter) Write(out io.Writer, res *models.ParseResult) error {
	rows := make([]csvRow, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		rows = append(rows, toRow(t))
	}
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func toRow(t models.Transaction) csvRow {
	row := csvRow{
		Description: t.Description,
		Category:    t.Category,
		Type:        string(t.Type),
		Amount:      t.Amount.StringFixed(2),
		Card:        t.CardName,
		Holder:      t.HolderName,
	}
	if !t.Date.IsZero() {
		row.Date = t.Date.Format("2006-01-02")
	}
	if !t.DueDate.IsZero() {
		row.DueDate = t.DueDate.Format("2006-01-02")
	}
	if t.InstallmentTotal > 0 {
		row.Installment = fmt.Sprintf("%d/%d", t.InstallmentNum, t.InstallmentTotal)
	}
	return row
}
