package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/likh/internal/export"
	"github.com/zombor/likh/internal/invoice"
	"github.com/zombor/likh/internal/scanning"
)

// IDGenerator generates unique IDs for submissions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs the extraction pipeline for each channel and keeps the resulting tables
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return NewServiceWithDeps(db, scanner, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips special characters from a filename and truncates long phone-generated names
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "invoice"
	}
	if ext = unsafeFilenameChars.ReplaceAllString(strings.TrimPrefix(ext, "."), ""); ext != "" {
		return base + "." + ext
	}
	return base
}

// Process reads an invoice document into the channel's table.
//
// When the document yields no line items, invoice.ErrNoLineItems is returned and the channel
// keeps its previous table. Otherwise the new table and document replace the previous ones.
func (s *Service) Process(ctx context.Context, ch Channel, filename string, data []byte, contentType string) (*Submission, error) {
	contentType = scanning.DetectContentType(filename, contentType)
	if ch == Camera && !scanning.IsImage(contentType) {
		return nil, fmt.Errorf("%w: the camera channel accepts images, got %s", scanning.ErrUnsupportedFormat, contentType)
	}

	table, err := scanning.Extract(ctx, s.scanner, data, contentType)
	switch {
	case errors.Is(err, invoice.ErrNoLineItems):
		slog.Info("No line items found, keeping previous table", "channel", ch, "filename", filename)
		return nil, err
	case errors.Is(err, ErrExtraction):
		slog.Error("Failed to extract invoice",
			"channel", ch,
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, err
	case err != nil:
		return nil, err
	}

	previous, err := s.db.GetSubmission(ch)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("getting previous submission: %w", err)
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	submission := &Submission{
		ID:          id,
		Channel:     ch,
		Filename:    filename,
		ContentType: contentType,
		SourcePath:  savedPath,
		Table:       table,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.SaveSubmission(submission); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving submission: %w", err)
	}

	if previous != nil && previous.SourcePath != "" {
		if err := s.storage.Delete(previous.SourcePath); err != nil {
			slog.Warn("Failed to delete previous file", "channel", ch, "filename", previous.SourcePath, "error", err)
		}
	}

	slog.Info("Processed invoice", "channel", ch, "id", id, "rows", table.Len())
	return submission, nil
}

// Get returns the channel's current submission
func (s *Service) Get(ch Channel) (*Submission, error) {
	submission, err := s.db.GetSubmission(ch)
	if err != nil {
		return nil, fmt.Errorf("getting submission: %w", err)
	}
	return submission, nil
}

// List returns the current submission of every channel that has one, in channel order
func (s *Service) List() ([]*Submission, error) {
	submissions, err := s.db.ListSubmissions()
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}

	byChannel := make(map[Channel]*Submission, len(submissions))
	for _, sub := range submissions {
		byChannel[sub.Channel] = sub
	}
	ordered := make([]*Submission, 0, len(submissions))
	for _, ch := range Channels {
		if sub, ok := byChannel[ch]; ok {
			ordered = append(ordered, sub)
		}
	}
	return ordered, nil
}

// UpdateCell replaces one cell of the channel's table. The value is stored as given.
func (s *Service) UpdateCell(ch Channel, row int, column string, value invoice.Value) (*Submission, error) {
	col, err := invoice.ParseColumn(column)
	if err != nil {
		return nil, err
	}

	submission, err := s.db.GetSubmission(ch)
	if err != nil {
		return nil, fmt.Errorf("getting submission: %w", err)
	}
	if err := submission.Table.Set(row, col, value); err != nil {
		return nil, err
	}
	submission.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveSubmission(submission); err != nil {
		return nil, fmt.Errorf("saving submission: %w", err)
	}
	return submission, nil
}

// ExportFilename is the download name of a channel's workbook
func ExportFilename(ch Channel) string {
	return fmt.Sprintf("invoice_%s.xlsx", ch)
}

// Export renders the channel's table as an XLSX workbook
func (s *Service) Export(ch Channel) ([]byte, error) {
	submission, err := s.db.GetSubmission(ch)
	if err != nil {
		return nil, fmt.Errorf("getting submission: %w", err)
	}

	data, err := export.Workbook(submission.Table)
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", ch, err)
	}
	return data, nil
}

// Source returns the document the channel's table was read from and its content type
func (s *Service) Source(ch Channel) ([]byte, string, error) {
	submission, err := s.db.GetSubmission(ch)
	if err != nil {
		return nil, "", fmt.Errorf("getting submission: %w", err)
	}

	data, err := s.storage.Get(submission.SourcePath)
	if err != nil {
		return nil, "", fmt.Errorf("getting source file: %w", err)
	}
	return data, submission.ContentType, nil
}

// Discard clears the channel's table and removes its source document
func (s *Service) Discard(ch Channel) error {
	submission, err := s.db.GetSubmission(ch)
	if err != nil {
		return fmt.Errorf("getting submission for deletion: %w", err)
	}

	if err := s.storage.Delete(submission.SourcePath); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", submission.SourcePath, "error", err)
	}

	if err := s.db.DeleteSubmission(ch); err != nil {
		return fmt.Errorf("deleting submission from database: %w", err)
	}
	return nil
}
