package channel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zombor/likh/internal/invoice"
	"github.com/zombor/likh/internal/scanning"
)

// Channel identifies an intake channel. Each channel holds its own current table.
type Channel string

const (
	// Camera accepts photos taken on a phone
	Camera Channel = "camera"
	// Upload accepts image and PDF files
	Upload Channel = "upload"
)

// Channels lists every channel in display order
var Channels = []Channel{Camera, Upload}

var (
	// ErrUnknownChannel is returned for a channel name that is not camera or upload
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrNotFound is returned when a channel has no table yet
	ErrNotFound = errors.New("no invoice for channel")

	// ErrExtraction marks failures of the extraction oracle
	ErrExtraction = scanning.ErrExtraction
)

// ParseChannel returns the channel with the given name
func ParseChannel(name string) (Channel, error) {
	ch := Channel(strings.ToLower(strings.TrimSpace(name)))
	for _, c := range Channels {
		if c == ch {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, name)
}

// Submission is the current table of a channel together with the document it was read from
type Submission struct {
	ID          string         `json:"id"`
	Channel     Channel        `json:"channel"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"content_type"`
	SourcePath  string         `json:"source_path"`
	Table       *invoice.Table `json:"table"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
