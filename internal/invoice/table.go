package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoLineItems is returned by Build when the extraction produced no line items.
	// An invoice without line items is a failed extraction, not an empty invoice.
	ErrNoLineItems = errors.New("no line items extracted")

	// ErrRowOutOfRange is returned when editing a row that does not exist
	ErrRowOutOfRange = errors.New("row out of range")

	// ErrUnknownColumn is returned for column names outside the canonical schema
	ErrUnknownColumn = errors.New("unknown column")
)

// Table is the editable result of one processed invoice.
// Every row holds every canonical column.
type Table struct {
	Rows []Row
}

// Build runs the full pipeline: reconcile the header, normalize the line items, fill
// blanks from the header, derive missing grand totals and trim whitespace.
func Build(items []LineItem, header Header) (*Table, error) {
	if len(items) == 0 {
		return nil, ErrNoLineItems
	}

	header = ReconcileHeader(header)
	rows := Normalize(items)
	FillFromHeader(rows, header)
	DeriveGrandTotals(rows)
	TrimSpace(rows)

	return &Table{Rows: rows}, nil
}

// Columns returns the canonical column order
func (t *Table) Columns() []Column {
	return Columns
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Get returns a single cell
func (t *Table) Get(row int, col Column) (Value, error) {
	if row < 0 || row >= len(t.Rows) {
		return Value{}, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	if _, err := ParseColumn(string(col)); err != nil {
		return Value{}, err
	}
	return t.Rows[row][col], nil
}

// Set overwrites a single cell. Edits are trusted as-is: GSTIN and grand total rules are
// not re-applied.
func (t *Table) Set(row int, col Column, v Value) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	if _, err := ParseColumn(string(col)); err != nil {
		return err
	}
	t.Rows[row][col] = v
	return nil
}

// Records returns the rows as cell slices in canonical column order
func (t *Table) Records() [][]Value {
	records := make([][]Value, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make([]Value, len(Columns))
		for i, col := range Columns {
			record[i] = row[col]
		}
		records = append(records, record)
	}
	return records
}

type tableJSON struct {
	Columns []Column  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// MarshalJSON encodes the table as a column list plus positional rows
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(tableJSON{
		Columns: Columns,
		Rows:    t.Records(),
	})
}

// UnmarshalJSON decodes the positional form written by MarshalJSON.
// Unknown columns are dropped and missing ones filled with empty text.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw tableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding table: %w", err)
	}

	rows := make([]Row, 0, len(raw.Rows))
	for i, record := range raw.Rows {
		if len(record) != len(raw.Columns) {
			return fmt.Errorf("decoding table: row %d has %d cells for %d columns", i, len(record), len(raw.Columns))
		}
		row := make(Row, len(Columns))
		for j, name := range raw.Columns {
			if _, err := ParseColumn(string(name)); err == nil {
				row[name] = record[j]
			}
		}
		for _, col := range Columns {
			if _, ok := row[col]; !ok {
				row[col] = Value{}
			}
		}
		rows = append(rows, row)
	}
	t.Rows = rows
	return nil
}
