package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

const sheetName = "Fatura"

// XLSXWriter writes the result as a spreadsheet with a summary block above
// the transaction rows.
type XLSXWriter struct{}

// WriteToFile writes the result to an .xlsx file at the given path.
func (w *XLSXWriter) WriteToFile(path string, res *models.ParseResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()
	return w.Write(f, res)
}

// Write renders the result to out.
func (w *XLSXWriter) Write(out io.Writer, res *models.ParseResult) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	summary := [][]any{
		{"Emissor", string(res.Issuer)},
		{"Vencimento", res.DueDate.Format("2006-01-02")},
		{"Total", res.Total.StringFixed(2)},
		{"Cartao final", res.CardLastFour},
	}
	for i, pair := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetName, cell, &pair); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	header := []any{"Data", "Descricao", "Categoria", "Tipo", "Valor", "Parcela", "Cartao", "Titular"}
	headerRow := len(summary) + 2
	cell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err := f.SetSheetRow(sheetName, cell, &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, t := range res.Transactions {
		row := toRow(t)
		values := []any{row.Date, row.Description, row.Category, row.Type, row.Amount, row.Installment, row.Card, row.Holder}
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write transaction row: %w", err)
		}
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
