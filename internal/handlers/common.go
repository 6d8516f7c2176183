package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"notevault-ai/internal/classify"
	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/service"
	"notevault-ai/internal/storage"
)

// defaultUserID is used when no owner header is present. Authentication is
// out of scope; owner identity is trusted from the X-User-ID header.
const defaultUserID = "default"

// userIDHeader names the request header carrying the owner identity.
const userIDHeader = "X-User-ID"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NoteResponse is the JSON shape of a note.
type NoteResponse struct {
	ID               string                `json:"id"`
	InputType        string                `json:"input_type"`
	Source           string                `json:"source"`
	OriginalText     string                `json:"original_text,omitempty"`
	Transcription    string                `json:"transcription,omitempty"`
	Title            string                `json:"title"`
	Summary          string                `json:"summary"`
	PrimaryTag       string                `json:"primary_tag"`
	SecondaryTags    []string              `json:"secondary_tags"`
	KeyEntities      classify.Entities     `json:"key_entities"`
	ActionableItems  []classify.ActionItem `json:"actionable_items"`
	Topics           []string              `json:"topics"`
	Sentiment        string                `json:"sentiment"`
	Priority         string                `json:"priority"`
	Language         string                `json:"language"`
	ProcessingStatus string                `json:"processing_status"`
	ErrorMessage     string                `json:"error_message,omitempty"`
	CreatedAt        string                `json:"created_at"`
	UpdatedAt        string                `json:"updated_at"`
}

func toNoteResponse(note *storage.NoteRecord) NoteResponse {
	resp := NoteResponse{
		ID:               note.ID,
		InputType:        note.InputType,
		Source:           note.Source,
		OriginalText:     note.OriginalText,
		Transcription:    note.Transcription,
		Title:            note.Title,
		Summary:          note.Summary,
		PrimaryTag:       note.PrimaryTag,
		SecondaryTags:    note.SecondaryTags,
		KeyEntities:      note.Entities,
		ActionableItems:  note.ActionableItems,
		Topics:           note.Topics,
		Sentiment:        note.Sentiment,
		Priority:         note.Priority,
		Language:         note.Language,
		ProcessingStatus: note.ProcessingStatus,
		ErrorMessage:     note.ErrorMessage,
		CreatedAt:        note.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        note.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if resp.SecondaryTags == nil {
		resp.SecondaryTags = []string{}
	}
	if resp.ActionableItems == nil {
		resp.ActionableItems = []classify.ActionItem{}
	}
	if resp.Topics == nil {
		resp.Topics = []string{}
	}
	return resp
}

// userID extracts the owner identity from the request.
func userID(r *http.Request) string {
	if id := r.Header.Get(userIDHeader); id != "" {
		return id
	}
	return defaultUserID
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, message string) {
	writeJSON(ctx, w, statusCode, ErrorResponse{Error: message})
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, service.ErrNotFound):
		writeError(ctx, w, http.StatusNotFound, "Note not found")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExternalService):
		writeError(ctx, w, http.StatusBadGateway, "External service error")
	default:
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "request failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}

// parseDate parses a yyyy-mm-dd query value into a UTC midnight timestamp.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, &service.ValidationError{Field: "date", Message: "expected yyyy-mm-dd"}
	}
	t = t.UTC()
	return &t, nil
}
