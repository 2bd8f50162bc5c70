package invoice

import "fmt"

// Column is the name of a canonical table column
type Column string

const (
	ColDate        Column = "Date"
	ColInvoiceNo   Column = "Invoice No."
	ColParticulars Column = "Particulars"
	ColLocation    Column = "Location"
	ColGSTIN       Column = "GSTIN"
	ColPartyName   Column = "Party Name"
	ColPartyGSTIN  Column = "Party GSTIN"
	ColItem        Column = "Item"
	ColMRP         Column = "MRP"
	ColQty         Column = "Qty"
	ColRate        Column = "Rate"
	ColAmount      Column = "Amount"
	ColTotalAmount Column = "Total Amount"
	ColDiscAmt     Column = "Disc Amt."
	ColIGSTPayable Column = "IGST Payable"
	ColGrandTotal  Column = "Grand Total"
)

// Columns is the canonical column order used for every table and export
var Columns = []Column{
	ColDate,
	ColInvoiceNo,
	ColParticulars,
	ColLocation,
	ColGSTIN,
	ColPartyName,
	ColPartyGSTIN,
	ColItem,
	ColMRP,
	ColQty,
	ColRate,
	ColAmount,
	ColTotalAmount,
	ColDiscAmt,
	ColIGSTPayable,
	ColGrandTotal,
}

// lineItemColumns maps oracle line-item field names onto canonical columns
var lineItemColumns = map[string]Column{
	"date":         ColDate,
	"invoice_no":   ColInvoiceNo,
	"particulars":  ColParticulars,
	"location":     ColLocation,
	"gstin":        ColGSTIN,
	"party_name":   ColPartyName,
	"party_gstin":  ColPartyGSTIN,
	"item":         ColItem,
	"mrp":          ColMRP,
	"qty":          ColQty,
	"rate":         ColRate,
	"amount":       ColAmount,
	"total_amount": ColTotalAmount,
	"disc_amt":     ColDiscAmt,
	"igst_payable": ColIGSTPayable,
	"grand_total":  ColGrandTotal,
}

// identifierColumns hold GSTINs and are normalized to the 15-character form
var identifierColumns = []Column{ColGSTIN, ColPartyGSTIN}

// ParseColumn returns the canonical column with the given name
func ParseColumn(name string) (Column, error) {
	for _, c := range Columns {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// ColumnForField returns the canonical column for an oracle line-item field name
func ColumnForField(field string) (Column, bool) {
	c, ok := lineItemColumns[field]
	return c, ok
}
