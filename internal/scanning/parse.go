package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zombor/likh/internal/invoice"
)

// extractJSONObject pulls the JSON object out of a free-text model reply
func extractJSONObject(text string) (string, error) {
	// Remove markdown code blocks if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("invalid JSON object in response")
	}

	return text[startIdx : endIdx+1], nil
}

// emptyArguments is what a reply without a function call decodes from
var emptyArguments = []byte("{}")

func orEmpty(raw []byte) []byte {
	if len(bytes.TrimSpace(raw)) == 0 {
		return emptyArguments
	}
	return raw
}

// decodeLineItems checks and decodes extract_invoice arguments.
// A reply without "items" yields no line items.
func decodeLineItems(raw []byte) ([]invoice.LineItem, error) {
	raw = orEmpty(raw)
	if err := validateArguments(ExtractInvoice, raw); err != nil {
		return nil, err
	}

	var args struct {
		Items []invoice.LineItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("unmarshaling line items: %w", err)
	}
	return args.Items, nil
}

// decodeHeader checks and decodes extract_headers arguments
func decodeHeader(raw []byte) (invoice.Header, error) {
	raw = orEmpty(raw)
	if err := validateArguments(ExtractHeaders, raw); err != nil {
		return invoice.Header{}, err
	}

	var header invoice.Header
	if err := json.Unmarshal(raw, &header); err != nil {
		return invoice.Header{}, fmt.Errorf("unmarshaling header: %w", err)
	}
	return header, nil
}
