package scanning

import (
	"context"
	"errors"
	"fmt"

	"github.com/zombor/likh/internal/invoice"
)

var (
	// ErrUnsupportedFormat is returned for documents that are neither an image nor a PDF
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoResponse is returned when the model answers with no candidates or choices
	ErrNoResponse = errors.New("no response from model")

	// ErrUnreadableDocument is returned for a supported format whose content cannot be decoded
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrExtraction marks failures of the extraction oracle
	ErrExtraction = errors.New("extraction failed")
)

// Document is what the oracle reads: either a prepared image or extracted text
type Document struct {
	Image    []byte
	MIMEType string
	Text     string
}

// IsText reports whether the document carries text instead of an image
func (d Document) IsText() bool {
	return len(d.Image) == 0
}

// Oracle runs one extraction function against a document and returns the raw JSON
// arguments the model produced for it
type Oracle interface {
	Call(ctx context.Context, fn Function, doc Document) ([]byte, error)
	// Close releases the underlying client
	Close() error
}

// Scanner defines the interface for invoice extraction operations
type Scanner interface {
	// ScanLineItems extracts the invoice's line items
	ScanLineItems(ctx context.Context, doc Document) ([]invoice.LineItem, error)
	// ScanHeader extracts the invoice-level fields
	ScanHeader(ctx context.Context, doc Document) (invoice.Header, error)
	// Close closes the scanner and releases resources
	Close() error
}

// New returns a Scanner that checks and decodes everything the oracle returns
func New(oracle Oracle) Scanner {
	return &functionScanner{oracle: oracle}
}

type functionScanner struct {
	oracle Oracle
}

func (s *functionScanner) ScanLineItems(ctx context.Context, doc Document) ([]invoice.LineItem, error) {
	raw, err := s.oracle.Call(ctx, ExtractInvoice, doc)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", ExtractInvoice.Name, err)
	}
	items, err := decodeLineItems(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ExtractInvoice.Name, err)
	}
	return items, nil
}

func (s *functionScanner) ScanHeader(ctx context.Context, doc Document) (invoice.Header, error) {
	raw, err := s.oracle.Call(ctx, ExtractHeaders, doc)
	if err != nil {
		return invoice.Header{}, fmt.Errorf("calling %s: %w", ExtractHeaders.Name, err)
	}
	header, err := decodeHeader(raw)
	if err != nil {
		return invoice.Header{}, fmt.Errorf("decoding %s: %w", ExtractHeaders.Name, err)
	}
	return header, nil
}

func (s *functionScanner) Close() error {
	return s.oracle.Close()
}
