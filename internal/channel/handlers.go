package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/zombor/likh/internal/invoice"
	"github.com/zombor/likh/internal/scanning"
)

// maxUploadSize bounds multipart uploads, high-resolution phone photos included
const maxUploadSize = int64(50 << 20)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownChannel), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, invoice.ErrNoLineItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scanning.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, scanning.ErrUnreadableDocument),
		errors.Is(err, invoice.ErrRowOutOfRange), errors.Is(err, invoice.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.Is(err, ErrExtraction):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the matching status
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	message := err.Error()
	switch code {
	case http.StatusUnprocessableEntity:
		message = "Nothing to show: no line items were found in the document"
	case http.StatusInternalServerError:
		message = "Internal server error"
	}

	if code >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	} else {
		slog.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	}
	writeError(w, code, message)
}

// pathChannel parses the {channel} path segment
func pathChannel(w http.ResponseWriter, r *http.Request) (Channel, bool) {
	ch, err := ParseChannel(r.PathValue("channel"))
	if err != nil {
		respondError(w, r, err)
		return "", false
	}
	return ch, true
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleListColumns returns the canonical column names in order
func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, invoice.Columns)
}

type channelSummary struct {
	Channel   Channel    `json:"channel"`
	Filename  string     `json:"filename,omitempty"`
	Rows      int        `json:"rows"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// handleListChannels returns every channel with a summary of its current table
func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	submissions, err := s.service.List()
	if err != nil {
		respondError(w, r, err)
		return
	}

	byChannel := make(map[Channel]*Submission, len(submissions))
	for _, sub := range submissions {
		byChannel[sub.Channel] = sub
	}

	summaries := make([]channelSummary, 0, len(Channels))
	for _, ch := range Channels {
		summary := channelSummary{Channel: ch}
		if sub, ok := byChannel[ch]; ok {
			summary.Filename = sub.Filename
			summary.Rows = sub.Table.Len()
			summary.UpdatedAt = &sub.UpdatedAt
		}
		summaries = append(summaries, summary)
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleUploadInvoice runs a document through the pipeline for a channel
func (s *Server) handleUploadInvoice(w http.ResponseWriter, r *http.Request) {
	ch, ok := pathChannel(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		writeError(w, http.StatusBadRequest, errorMsg)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		writeError(w, http.StatusBadRequest, errorMsg)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	submission, err := s.service.Process(r.Context(), ch, header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, submission)
}

// handleGetInvoice returns the channel's current table
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	ch, ok := pathChannel(w, r)
	if !ok {
		return
	}

	submission, err := s.service.Get(ch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submission)
}

type cellUpdate struct {
	Column string        `json:"column"`
	Value  invoice.Value `json:"value"`
}

// handleUpdateCell edits one cell of the channel's table
func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	ch, ok := pathChannel(w, r)
	if !ok {
		return
	}

	row, err := strconv.Atoi(r.PathValue("row"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid row %q", r.PathValue("row")))
		return
	}

	var req cellUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	submission, err := s.service.UpdateCell(ch, row, req.Column, req.Value)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submission)
}

// handleDiscardInvoice clears the channel's table
func (s *Server) handleDiscardInvoice(w http.ResponseWriter, r *http.Request) {
	ch, ok := pathChannel(w, r)
	if !ok {
		return
	}

	if err := s.service.Discard(ch); err != nil {
		respondError(w, r, err)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleExport downloads the channel's table as a workbook
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ch, ok := pathChannel(w, r)
	if !ok {
		return
	}

	data, err := s.service.Export(ch)
	if err != nil {
		respondError(w, r, err)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename(ch)))
	w.Write(data)
}

// handleSource returns the document the channel's table was read from
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	ch, ok := pathChannel(w, r)
	if !ok {
		return
	}

	data, contentType, err := s.service.Source(ch)
	if err != nil {
		respondError(w, r, err)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
