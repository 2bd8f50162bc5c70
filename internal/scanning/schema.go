package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
)

type field struct {
	name string
	kind fieldKind
}

// Function is a fixed extraction function the model is asked to call
type Function struct {
	Name        string
	Description string
	// Instruction is sent alongside the document
	Instruction string

	fields   []field
	required []string
	// list marks functions whose fields describe the elements of an "items" array
	list bool
}

// ExtractInvoice returns one object per line item
var ExtractInvoice = Function{
	Name:        "extract_invoice",
	Description: "Extract each line item into JSON",
	Instruction: "Extract line items.",
	list:        true,
	fields: []field{
		{"date", kindString},
		{"invoice_no", kindString},
		{"particulars", kindString},
		{"location", kindString},
		{"gstin", kindString},
		{"party_name", kindString},
		{"party_gstin", kindString},
		{"item", kindString},
		{"mrp", kindNumber},
		{"qty", kindNumber},
		{"rate", kindNumber},
		{"amount", kindNumber},
		{"total_amount", kindNumber},
		{"disc_amt", kindNumber},
		{"igst_payable", kindNumber},
		{"grand_total", kindNumber},
	},
	required: []string{"date", "invoice_no", "item", "qty"},
}

// ExtractHeaders returns the invoice-level fields
var ExtractHeaders = Function{
	Name:        "extract_headers",
	Description: "Extract invoice-level header fields",
	Instruction: "Extract headers.",
	fields: []field{
		{"date", kindString},
		{"invoice_no", kindString},
		{"originator_name", kindString},
		{"originator_location", kindString},
		{"originator_gstin", kindString},
		{"party_name", kindString},
		{"party_gstin", kindString},
		{"grand_total", kindNumber},
	},
	required: []string{"date", "invoice_no"},
}

func (k fieldKind) jsonType() string {
	if k == kindNumber {
		return "number"
	}
	return "string"
}

// Parameters returns the JSON schema declared to the model for the function's arguments
func (f Function) Parameters() map[string]any {
	props := make(map[string]any, len(f.fields))
	for _, fd := range f.fields {
		props[fd.name] = map[string]any{"type": fd.kind.jsonType()}
	}
	object := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   f.required,
	}
	if !f.list {
		return object
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type":  "array",
				"items": object,
			},
		},
		"required": []string{"items"},
	}
}

// envelope is the schema replies are checked against. The model's output is partial by
// nature, so fields only need to be scalars and nothing is required; structural damage
// such as an object where a value belongs is rejected.
func (f Function) envelope() map[string]any {
	scalar := map[string]any{"type": []string{"string", "number", "boolean", "null"}}
	props := make(map[string]any, len(f.fields))
	for _, fd := range f.fields {
		props[fd.name] = scalar
	}
	object := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if !f.list {
		return object
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type":  []string{"array", "null"},
				"items": object,
			},
		},
	}
}

// validateArguments checks raw function arguments against the function's envelope
func validateArguments(f Function, raw []byte) error {
	b, err := json.Marshal(f.envelope())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(f.Name+".json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(f.Name + ".json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal arguments: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("arguments do not match schema: %w", err)
	}
	return nil
}
