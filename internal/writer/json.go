package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

// jsonDoc is the file-export shape: a small summary plus the full rows.
type jsonDoc struct {
	Issuer       string               `json:"issuer"`
	DueDate      string               `json:"dueDate"`
	Total        string               `json:"total"`
	CardLastFour string               `json:"cardLastFour,omitempty"`
	Transactions []models.Transaction `json:"transactions"`
}

// JSONWriter writes the result as a JSON document.
type JSONWriter struct{}

// WriteToFile writes the result to a JSON file at the given path.
func (w *JSONWriter) WriteToFile(path string, res *models.ParseResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()
	return w.Write(f, res)
}

// Write renders the result to out.
func (w *JSONWriter) Write(out io.Writer, res *models.ParseResult) error {
	doc := jsonDoc{
		Issuer:       string(res.Issuer),
		DueDate:      res.DueDate.Format("2006-01-02"),
		Total:        res.Total.StringFixed(2),
		CardLastFour: res.CardLastFour,
		Transactions: res.Transactions,
	}
	if doc.Transactions == nil {
		doc.Transactions = []models.Transaction{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
