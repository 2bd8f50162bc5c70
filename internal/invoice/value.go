package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a single table cell holding either text or a number.
// The zero Value is empty text.
type Value struct {
	text   string
	number float64
	isNum  bool
}

// Text returns a text cell
func Text(s string) Value {
	return Value{text: s}
}

// Number returns a numeric cell
func Number(f float64) Value {
	return Value{number: f, isNum: true}
}

// IsNumber reports whether the cell holds a number
func (v Value) IsNumber() bool {
	return v.isNum
}

// IsEmpty reports whether the cell is empty text. Numbers are never empty.
func (v Value) IsEmpty() bool {
	return !v.isNum && v.text == ""
}

// Float returns the numeric value and true when the cell holds a number
func (v Value) Float() (float64, bool) {
	return v.number, v.isNum
}

// String returns the cell as display text
func (v Value) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	}
	return v.text
}

// truthy mirrors how header values qualify for filling: non-empty text or a non-zero number.
func (v Value) truthy() bool {
	if v.isNum {
		return v.number != 0 && !math.IsNaN(v.number)
	}
	return v.text != ""
}

// MarshalJSON writes numbers as JSON numbers and text as JSON strings
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		if math.IsNaN(v.number) || math.IsInf(v.number, 0) {
			return json.Marshal(v.String())
		}
		return json.Marshal(v.number)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts a string, a number, a boolean or null.
// Null decodes to empty text.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding text cell: %w", err)
		}
		*v = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decoding boolean cell: %w", err)
		}
		*v = Text(strconv.FormatBool(b))
	case '{', '[':
		return fmt.Errorf("cell must be a scalar, got %s", data)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("decoding numeric cell: %w", err)
		}
		*v = Number(f)
	}
	return nil
}
