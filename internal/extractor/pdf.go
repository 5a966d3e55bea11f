// Package extractor recovers a plain-text representation of an invoice
// document. The text layer is tried first with several extraction methods;
// OCR is a separate, more expensive tier driven by the pipeline.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/invoice-extractor/internal/common"
)

// PDFExtractor reads the embedded text layer of a PDF document.
type PDFExtractor struct {
	// Pdftotext is the poppler binary used as a last-resort extraction
	// method. Empty means "pdftotext" from PATH.
	Pdftotext string
}

// Extract returns the document's text layer. It tries multiple extraction
// methods and keeps the first one that yields usable text. A wrong or
// missing password for an encrypted document is a terminal input error.
func (e *PDFExtractor) Extract(data []byte, password string) (string, error) {
	if len(data) == 0 {
		return "", common.NewInputError(common.ErrEmptyDocument)
	}

	r, err := openReader(data, password)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", common.NewInputError(common.ErrWrongPassword)
		}
		return "", fmt.Errorf("open pdf: %w", err)
	}

	// Method 1: row-grouped extraction (best layout preservation).
	if text := extractByRow(r); strings.TrimSpace(text) != "" {
		return text, nil
	}

	// Method 2: per-page plain text with font maps.
	if text := extractByPagePlainText(r); strings.TrimSpace(text) != "" {
		return text, nil
	}

	// Method 3: whole-document plain text.
	if text := extractByReaderPlainText(r); strings.TrimSpace(text) != "" {
		return text, nil
	}

	// Method 4: raw content-stream decode through ToUnicode CMaps, for
	// CIDFont/Type0 encodings the library cannot map. Skipped for encrypted
	// documents, whose streams the raw scan cannot decrypt.
	if password == "" {
		if text := extractRawText(data); strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	// Method 5: external pdftotext. Only reachable for unencrypted
	// documents; pdftotext is not handed the password.
	if password == "" {
		if text, err := e.extractWithPdftotext(data); err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	// No text layer at all. Not an error: the pipeline decides whether to
	// escalate to OCR.
	return "", nil
}

// ExtractSorted re-reads the text layer in position-sorted reading order,
// grouping glyphs by Y coordinate and sorting each row by X. Some issuers'
// renderers emit text objects out of order; this re-read recovers rows the
// default method interleaves.
func (e *PDFExtractor) ExtractSorted(data []byte, password string) (string, error) {
	if len(data) == 0 {
		return "", common.NewInputError(common.ErrEmptyDocument)
	}

	r, err := openReader(data, password)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", common.NewInputError(common.ErrWrongPassword)
		}
		return "", fmt.Errorf("open pdf: %w", err)
	}

	return extractByContent(r), nil
}

func openReader(data []byte, password string) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf library panic: %v", rec)
		}
	}()

	reader := bytes.NewReader(data)
	if password != "" {
		asked := false
		return pdf.NewReaderEncrypted(reader, int64(len(data)), func() string {
			// The library calls back until the password works; answer once,
			// then give up so a wrong password fails instead of looping.
			if asked {
				return ""
			}
			asked = true
			return password
		})
	}
	return pdf.NewReader(reader, int64(len(data)))
}

// extractByRow joins GetTextByRow output page by page.
func extractByRow(r *pdf.Reader) string {
	defer func() { _ = recover() }()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(pages, "\n\n")
}

// extractByContent reconstructs rows from raw glyph coordinates: group by
// rounded Y, sort rows top-to-bottom, sort glyphs left-to-right, and insert
// a column gap where X jumps.
func extractByContent(r *pdf.Reader) string {
	defer func() { _ = recover() }()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		type textItem struct {
			x float64
			s string
		}
		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		// PDF Y grows bottom-to-top.
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var parts []string
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					parts = append(parts, "  ")
				}
				parts = append(parts, item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(strings.Join(parts, ""))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(pages, "\n\n")
}

func extractByPagePlainText(r *pdf.Reader) string {
	defer func() { _ = recover() }()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fontNames := page.Fonts()
		fonts := make(map[string]*pdf.Font)
		for _, name := range fontNames {
			f := page.Font(name)
			fonts[name] = &f
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n")
}

func extractByReaderPlainText(r *pdf.Reader) string {
	defer func() { _ = recover() }()

	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// extractWithPdftotext shells out to poppler's pdftotext, which handles some
// font encodings the Go library cannot.
func (e *PDFExtractor) extractWithPdftotext(data []byte) (string, error) {
	bin := e.Pdftotext
	if bin == "" {
		bin = "pdftotext"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return "", fmt.Errorf("pdftotext not available: %w", err)
	}

	tmp, err := os.CreateTemp("", "invoice-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command(bin, "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
