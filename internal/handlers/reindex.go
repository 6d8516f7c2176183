package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/pipeline"
)

// Reindexer is the slice of the pipeline the admin handler needs.
type Reindexer interface {
	Reindex(ctx context.Context, userID string) error
}

// ReindexHandler handles POST /api/v1/admin/reindex: rebuild the vector
// index from the authoritative relational store, for one user or for all.
type ReindexHandler struct {
	processor Reindexer
}

// NewReindexHandler creates a new ReindexHandler.
func NewReindexHandler(processor Reindexer) *ReindexHandler {
	return &ReindexHandler{processor: processor}
}

// ReindexRequest optionally restricts the rebuild to one user.
type ReindexRequest struct {
	UserID string `json:"user_id,omitempty"`
}

// ReindexResponse reports the outcome.
type ReindexResponse struct {
	Status string `json:"status"`
}

// ServeHTTP runs the rebuild synchronously. Partial failures (some notes
// could not be re-embedded) are reported as a degraded completion, not a
// hard error.
func (h *ReindexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ReindexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.processor.Reindex(ctx, req.UserID); err != nil {
		if !errors.Is(err, pipeline.ErrPartialReindex) {
			writeServiceError(ctx, w, err)
			return
		}
		logger.WarnContext(ctx, "reindex finished with errors", "error", err)
		writeJSON(ctx, w, http.StatusOK, ReindexResponse{Status: "completed_with_errors"})
		return
	}

	writeJSON(ctx, w, http.StatusOK, ReindexResponse{Status: "completed"})
}
