// Package xlsx extracts text from Excel workbooks using excelize.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

const cellSeparator = " | "

// Extractor handles XLSX workbooks.
type Extractor struct{}

// New creates a new XLSX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "xlsx"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".xlsx", ".xlsm"}
}

// Extract renders each sheet as its name followed by one line per non-empty
// row, cells joined by " | ". Sheets are separated by a blank line.
func (e *Extractor) Extract(ctx context.Context, content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: opening workbook: %w", domain.ErrExtractionFailed, err)
	}
	defer f.Close() //nolint:errcheck

	var sheets []string
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("%w: reading sheet %q: %w", domain.ErrExtractionFailed, name, err)
		}

		lines := renderRows(rows)
		if len(lines) == 0 {
			continue
		}
		sheets = append(sheets, name+"\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(sheets, "\n\n"), nil
}

// renderRows joins each row's cells, dropping trailing empty cells and rows
// with no content.
func renderRows(rows [][]string) []string {
	var lines []string
	for _, row := range rows {
		end := len(row)
		for end > 0 && strings.TrimSpace(row[end-1]) == "" {
			end--
		}
		if end == 0 {
			continue
		}

		cells := make([]string, end)
		for i, cell := range row[:end] {
			cells[i] = strings.TrimSpace(cell)
		}
		lines = append(lines, strings.Join(cells, cellSeparator))
	}
	return lines
}
