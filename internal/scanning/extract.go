package scanning

import (
	"context"
	"fmt"

	"github.com/zombor/likh/internal/invoice"
)

// Extract runs one uploaded file through the pipeline and returns its table.
//
// The header is only requested once line items were found; without any the result is
// invoice.ErrNoLineItems. Model failures are wrapped in ErrExtraction.
func Extract(ctx context.Context, scanner Scanner, data []byte, contentType string) (*invoice.Table, error) {
	doc, err := Prepare(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("preparing document: %w", err)
	}

	items, err := scanner.ScanLineItems(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if len(items) == 0 {
		return nil, invoice.ErrNoLineItems
	}

	header, err := scanner.ScanHeader(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	table, err := invoice.Build(items, header)
	if err != nil {
		return nil, fmt.Errorf("building table: %w", err)
	}
	return table, nil
}
