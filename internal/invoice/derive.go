package invoice

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a cell as a decimal. Anything unparsable counts as zero.
func ParseAmount(v Value) decimal.Decimal {
	if f, ok := v.Float(); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(f)
	}

	d, err := decimal.NewFromString(strings.TrimSpace(v.text))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DeriveGrandTotals sets Grand Total to Amount + IGST Payable on rows where it is empty.
// Existing totals, numeric or not, are left alone, so repeated calls are no-ops.
func DeriveGrandTotals(rows []Row) {
	for _, row := range rows {
		if !row[ColGrandTotal].IsEmpty() {
			continue
		}
		total := ParseAmount(row[ColAmount]).Add(ParseAmount(row[ColIGSTPayable]))
		row[ColGrandTotal] = Number(total.InexactFloat64())
	}
}
