// Package docloader extracts plain text from PDF and spreadsheet files so
// it can be fed into the graph engine's Learn/LearnBatch operations. It
// does no extraction or graph writing itself.
package docloader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned by Load for a file extension this
// package does not know how to parse.
var ErrUnsupportedFormat = fmt.Errorf("docloader: unsupported file format")

// Load dispatches on path's extension and returns the file's extracted
// text. Supported extensions: .pdf, .xlsx, .xls.
func Load(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return LoadPDF(path)
	case ".xlsx", ".xls":
		return LoadXLSX(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadPDF extracts the concatenated plain text of every page in the PDF
// at path, in page order.
func LoadPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("docloader: opening PDF: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("docloader: no extractable text in %s", path)
	}
	return out, nil
}

// LoadXLSX renders every sheet of the workbook at path as a pipe-delimited
// text table, one section per sheet, suitable as Learn input.
func LoadXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("docloader: opening XLSX: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		rows = lo.Filter(rows, func(row []string, _ int) bool {
			return len(lo.Filter(row, func(cell string, _ int) bool { return strings.TrimSpace(cell) != "" })) > 0
		})
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "Sheet: %s\n", sheet)
		for _, row := range rows {
			b.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
		b.WriteString("\n")
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("docloader: no data found in %s", path)
	}
	return out, nil
}

// Chunk splits text into pieces of at most maxChars, breaking on
// paragraph boundaries where possible so a chunk never splits a sentence
// mid-word unless a single paragraph already exceeds maxChars.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 || len(text) <= maxChars {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	paragraphs := lo.Filter(strings.Split(text, "\n\n"), func(p string, _ int) bool {
		return strings.TrimSpace(p) != ""
	})
	var chunks []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}

	for _, p := range paragraphs {
		if len(p) > maxChars {
			flush()
			for len(p) > maxChars {
				chunks = append(chunks, p[:maxChars])
				p = p[maxChars:]
			}
			if strings.TrimSpace(p) != "" {
				chunks = append(chunks, p)
			}
			continue
		}
		if cur.Len()+len(p)+2 > maxChars {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	flush()

	return chunks
}
