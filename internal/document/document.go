// Package document extracts plain text from uploaded files.
//
// Supported formats: PDF, DOCX, XLSX/XLS, and plain text. Page and table
// boundaries are tagged with [Page n] / [Table n] markers that the text
// cleaner strips after any per-page processing.
package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// SupportedExtensions lists the file extensions Parse accepts, with the
// leading dot, lower-case.
var SupportedExtensions = []string{".pdf", ".docx", ".txt", ".xlsx", ".xls"}

// Info describes an uploaded file.
type Info struct {
	Filename  string  `json:"filename"`
	Extension string  `json:"extension"`
	SizeBytes int     `json:"size_bytes"`
	SizeMB    float64 `json:"size_mb"`
}

// Describe returns the Info block for a file.
func Describe(data []byte, filename string) Info {
	return Info{
		Filename:  filename,
		Extension: strings.ToLower(filepath.Ext(filename)),
		SizeBytes: len(data),
		SizeMB:    float64(len(data)) / (1024 * 1024),
	}
}

// CheckSize returns ErrTooLarge when data exceeds maxMB megabytes.
func CheckSize(data []byte, maxMB int) error {
	max := maxMB * 1024 * 1024
	if len(data) > max {
		return &ErrTooLarge{Size: len(data), Max: max}
	}
	return nil
}

// Supported reports whether the filename's extension is parseable.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Parse extracts plain text from data, dispatching on the filename's
// extension. The returned text is raw: callers run it through the cleaner
// before chunking.
func Parse(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return parsePDF(data)
	case ".docx":
		return parseDOCX(data)
	case ".xlsx", ".xls":
		return parseXLSX(data)
	case ".txt":
		return parseTXT(data)
	default:
		return "", &ErrUnsupportedType{Extension: ext}
	}
}

func parsePDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not fail the document.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&sb, "[Page %d]\n%s\n", i, text)
	}
	return sb.String(), nil
}

func parseDOCX(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}

	var sb strings.Builder
	tableN := 0
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			if s := it.String(); strings.TrimSpace(s) != "" {
				sb.WriteString(s)
				sb.WriteString("\n")
			}
		case *docx.Table:
			tableN++
			fmt.Fprintf(&sb, "[Table %d]\n%s\n", tableN, it.String())
		}
	}
	return sb.String(), nil
}

func parseXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("read spreadsheet: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "Sheet: %s\n", sheet)
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func parseTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text file is not valid UTF-8")
	}
	return string(data), nil
}
