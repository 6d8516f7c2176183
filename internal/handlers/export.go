package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/export"
	"notevault-ai/internal/storage"
)

// ExportHandler handles GET /api/v1/notes/{id}/export. The default format is
// a downloadable markdown document; ?format=html returns a rendered preview.
type ExportHandler struct {
	notes storage.NoteStore
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(notes storage.NoteStore) *ExportHandler {
	return &ExportHandler{notes: notes}
}

// ServeHTTP renders one note as an export document.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	note, err := h.notes.Get(ctx, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(note)))
		_, _ = w.Write([]byte(export.Markdown(note)))
	case "html":
		html, err := export.HTML(note)
		if err != nil {
			logger.ErrorContext(ctx, "failed to render export preview", "note_id", note.ID, "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "Failed to render note")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	default:
		writeError(ctx, w, http.StatusBadRequest, fmt.Sprintf("Invalid format: %s", format))
		return
	}

	logger.InfoContext(ctx, "note exported", "note_id", note.ID, "format", format)
}
