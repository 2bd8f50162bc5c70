package invoice

// Header holds the invoice-level fields reported by the header extraction.
// Any field may be empty.
type Header struct {
	Date               Value `json:"date"`
	InvoiceNo          Value `json:"invoice_no"`
	OriginatorName     Value `json:"originator_name"`
	OriginatorLocation Value `json:"originator_location"`
	OriginatorGSTIN    Value `json:"originator_gstin"`
	PartyName          Value `json:"party_name"`
	PartyGSTIN         Value `json:"party_gstin"`
	GrandTotal         Value `json:"grand_total"`
}

// ReconcileHeader treats a lone originator as the counterparty.
//
// Simple invoices are often reported with only the issuing entity filled in. When an
// originator name is present and no party name is, the originator's name and GSTIN move
// to the party fields and all three originator fields are cleared. Nothing else changes.
func ReconcileHeader(h Header) Header {
	if h.OriginatorName.IsEmpty() || !h.PartyName.IsEmpty() {
		return h
	}

	h.PartyName = h.OriginatorName
	h.PartyGSTIN = h.OriginatorGSTIN
	h.OriginatorName = Value{}
	h.OriginatorLocation = Value{}
	h.OriginatorGSTIN = Value{}
	return h
}

type fillSource struct {
	column Column
	value  Value
}

// fillSources pairs each fillable column with its header value
func (h Header) fillSources() []fillSource {
	return []fillSource{
		{ColParticulars, h.OriginatorName},
		{ColLocation, h.OriginatorLocation},
		{ColGSTIN, h.OriginatorGSTIN},
		{ColPartyName, h.PartyName},
		{ColPartyGSTIN, h.PartyGSTIN},
		{ColGrandTotal, h.GrandTotal},
	}
}
