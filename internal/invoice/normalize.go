package invoice

import (
	"regexp"
	"strings"
)

// LineItem is one extracted line keyed by oracle field name (e.g. "qty", "igst_payable")
type LineItem map[string]Value

// Row is one table row keyed by canonical column
type Row map[Column]Value

var gstinPattern = regexp.MustCompile(`[0-9A-Z]{15}`)

// NormalizeGSTIN uppercases v and keeps the first 15-character run of digits and
// uppercase letters. Without such a run the result is empty text.
func NormalizeGSTIN(v Value) Value {
	return Text(gstinPattern.FindString(strings.ToUpper(v.String())))
}

// Normalize maps oracle line items onto canonical rows.
// Unrecognized fields are dropped, missing columns become empty text and both GSTIN
// columns are normalized per cell.
func Normalize(items []LineItem) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row := make(Row, len(Columns))
		for field, value := range item {
			if col, ok := ColumnForField(field); ok {
				row[col] = value
			}
		}
		for _, col := range Columns {
			if _, ok := row[col]; !ok {
				row[col] = Value{}
			}
		}
		for _, col := range identifierColumns {
			row[col] = NormalizeGSTIN(row[col])
		}
		rows = append(rows, row)
	}
	return rows
}

// FillFromHeader copies header values into empty cells of the fillable columns.
// Cells that already hold a value are never overwritten. Header GSTINs are normalized
// first, so a malformed one fills nothing.
func FillFromHeader(rows []Row, h Header) {
	for _, src := range h.fillSources() {
		value := src.value
		if isIdentifier(src.column) {
			value = NormalizeGSTIN(value)
		}
		if !value.truthy() {
			continue
		}
		for _, row := range rows {
			if row[src.column].IsEmpty() {
				row[src.column] = value
			}
		}
	}
}

func isIdentifier(col Column) bool {
	for _, c := range identifierColumns {
		if c == col {
			return true
		}
	}
	return false
}

// TrimSpace strips surrounding whitespace from every text cell
func TrimSpace(rows []Row) {
	for _, row := range rows {
		for col, v := range row {
			if !v.IsNumber() {
				row[col] = Text(strings.TrimSpace(v.text))
			}
		}
	}
}
