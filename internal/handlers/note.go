package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"notevault-ai/internal/classify"
	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/storage"
)

// NoteProcessor is the slice of the pipeline the note handler needs.
type NoteProcessor interface {
	Process(ctx context.Context, note *storage.NoteRecord, canonicalText string) error
	RemoveFromIndex(ctx context.Context, noteID string)
}

// NoteHandler handles the note CRUD endpoints.
type NoteHandler struct {
	users     storage.UserStore
	notes     storage.NoteStore
	processor NoteProcessor
	logger    *slog.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(users storage.UserStore, notes storage.NoteStore, processor NoteProcessor) *NoteHandler {
	return &NoteHandler{
		users:     users,
		notes:     notes,
		processor: processor,
		logger:    slog.Default(),
	}
}

// CreateTextRequest is the payload for creating a text note.
type CreateTextRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// Create handles POST /api/v1/notes/text. The note is persisted immediately
// and enriched asynchronously; the response carries the pending record.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	text, err := cleanAndValidateText(req.Text)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	source := req.Source
	switch source {
	case "web", "api", "telegram":
	case "":
		source = "web"
	default:
		writeError(ctx, w, http.StatusBadRequest, fmt.Sprintf("Invalid source: %s", source))
		return
	}

	owner := userID(r)
	if _, err := h.users.GetOrCreate(ctx, owner); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	note := &storage.NoteRecord{
		UserID:           owner,
		InputType:        storage.InputText,
		Source:           source,
		OriginalText:     text,
		ProcessingStatus: storage.StatusPending,
	}
	if err := h.notes.Create(ctx, note); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	processAsync(h.processor, logger, note, text)

	logger.InfoContext(ctx, "note created", "note_id", note.ID, "source", source, "chars", len(text))
	writeJSON(ctx, w, http.StatusCreated, toNoteResponse(note))
}

// processAsync runs the enrichment pipeline detached from the request
// context, so a closed client connection does not abort classification. The
// pipeline gets its own copy of the record: the handler keeps reading the
// original while building the response, and the pipeline mutates status and
// metadata fields as it goes.
func processAsync(processor NoteProcessor, logger *slog.Logger, note *storage.NoteRecord, canonicalText string) {
	snapshot := *note
	ctx := contextutil.WithLogger(context.Background(), logger)
	go func() {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if err := processor.Process(pctx, &snapshot, canonicalText); err != nil {
			logger.ErrorContext(pctx, "note processing failed", "note_id", snapshot.ID, "error", err)
		}
	}()
}

// Get handles GET /api/v1/notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	note, err := h.notes.Get(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toNoteResponse(note))
}

// ListResponse is the paginated note listing payload.
type ListResponse struct {
	Notes    []NoteResponse `json:"notes"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// List handles GET /api/v1/notes with tag/source/status/date filters.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}

	startDate, err := parseDate(q.Get("start_date"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid start_date: expected yyyy-mm-dd")
		return
	}
	endDate, err := parseDate(q.Get("end_date"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid end_date: expected yyyy-mm-dd")
		return
	}

	filter := storage.Filter{
		PrimaryTag: q.Get("primary_tag"),
		Source:     q.Get("source"),
		Status:     q.Get("status"),
		StartDate:  startDate,
		EndDate:    endDate,
	}

	notes, total, err := h.notes.List(ctx, userID(r), filter, (page-1)*pageSize, pageSize)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := ListResponse{
		Notes:    make([]NoteResponse, 0, len(notes)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, note := range notes {
		resp.Notes = append(resp.Notes, toNoteResponse(note))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// PatchRequest carries the user-editable metadata fields. Editing text is
// not supported; metadata edits never re-embed.
type PatchRequest struct {
	Title         *string   `json:"title,omitempty"`
	Summary       *string   `json:"summary,omitempty"`
	PrimaryTag    *string   `json:"primary_tag,omitempty"`
	SecondaryTags *[]string `json:"secondary_tags,omitempty"`
}

// Patch handles PATCH /api/v1/notes/{id}.
func (h *NoteHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.notes.Get(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	if req.Title != nil {
		note.Title = strings.TrimSpace(*req.Title)
	}
	if req.Summary != nil {
		note.Summary = strings.TrimSpace(*req.Summary)
	}
	if req.PrimaryTag != nil {
		if !validPrimaryTag(*req.PrimaryTag) {
			writeError(ctx, w, http.StatusBadRequest, fmt.Sprintf("Invalid primary_tag: %s", *req.PrimaryTag))
			return
		}
		note.PrimaryTag = *req.PrimaryTag
	}
	if req.SecondaryTags != nil {
		note.SecondaryTags = *req.SecondaryTags
	}

	if err := h.notes.Update(ctx, note); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "note updated", "note_id", note.ID)
	writeJSON(ctx, w, http.StatusOK, toNoteResponse(note))
}

// Delete handles DELETE /api/v1/notes/{id}. The relational row is removed
// first; the vector delete is best-effort and a leftover entry is filtered
// at search time.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	id := chi.URLParam(r, "id")

	if err := h.notes.Delete(ctx, id, userID(r)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.processor.RemoveFromIndex(ctx, id)

	logger.InfoContext(ctx, "note deleted", "note_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// cleanAndValidateText collapses whitespace and enforces the 3..100000 char
// bounds.
func cleanAndValidateText(text string) (string, error) {
	cleaned := strings.Join(strings.Fields(text), " ")
	if cleaned == "" {
		return "", fmt.Errorf("text cannot be empty")
	}
	if len(cleaned) < 3 {
		return "", fmt.Errorf("text is too short (minimum 3 characters)")
	}
	if len(cleaned) > 100000 {
		return "", fmt.Errorf("text is too long (maximum 100,000 characters)")
	}
	return cleaned, nil
}

func validPrimaryTag(tag string) bool {
	for _, t := range classify.PrimaryTags {
		if tag == t {
			return true
		}
	}
	return false
}

func queryInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
