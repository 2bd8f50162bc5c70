// Package export writes invoice tables as spreadsheets.
package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/zombor/likh/internal/invoice"
)

const (
	// Sheet is the name of the worksheet holding the table
	Sheet = "Invoice"

	headerFill   = "D7E4BC"
	minWidth     = 12
	widthPadding = 2
)

// Workbook renders the table as an XLSX workbook. Row 1 holds the column names, one row per
// line item follows. Numbers are written as numbers and everything else as text.
func Workbook(t *invoice.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), Sheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	columns := t.Columns()
	widths := make([]int, len(columns))
	measure := func(i int, s string) {
		if n := utf8.RuneCountInString(s); n > widths[i] {
			widths[i] = n
		}
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(Sheet, cell, string(col)); err != nil {
			return nil, fmt.Errorf("writing header %s: %w", col, err)
		}
		measure(i, string(col))
	}

	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(Sheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("styling header: %w", err)
	}

	for r, record := range t.Records() {
		for i, v := range record {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}
			if n, ok := v.Float(); ok {
				err = f.SetCellFloat(Sheet, cell, n, -1, 64)
			} else {
				err = f.SetCellStr(Sheet, cell, v.String())
			}
			if err != nil {
				return nil, fmt.Errorf("writing %s: %w", cell, err)
			}
			measure(i, v.String())
		}
	}

	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(Sheet, name, name, float64(max(w+widthPadding, minWidth))); err != nil {
			return nil, fmt.Errorf("sizing column %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
