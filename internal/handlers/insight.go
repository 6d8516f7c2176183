package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/insight"
)

// InsightGenerator is the slice of the insight engine the handler needs.
type InsightGenerator interface {
	Generate(ctx context.Context, req insight.Request) (insight.Response, error)
}

// InsightHandler handles POST /api/v1/insights.
type InsightHandler struct {
	engine InsightGenerator
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(engine InsightGenerator) *InsightHandler {
	return &InsightHandler{engine: engine}
}

// InsightRequest is the HTTP payload for an insight query.
type InsightRequest struct {
	Query      string `json:"query"`
	PrimaryTag string `json:"primary_tag,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	MaxNotes   int    `json:"max_notes,omitempty"`
}

// InsightResponse is the generated answer payload.
type InsightResponse struct {
	Answer     string   `json:"answer"`
	References []string `json:"references"`
	Degraded   bool     `json:"degraded"`
}

// ServeHTTP answers a free-form question over the user's notes.
func (h *InsightHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req InsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		writeError(ctx, w, http.StatusBadRequest, "Query is required")
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid start_date: expected yyyy-mm-dd")
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid end_date: expected yyyy-mm-dd")
		return
	}

	result, err := h.engine.Generate(ctx, insight.Request{
		UserID:     userID(r),
		Query:      req.Query,
		PrimaryTag: req.PrimaryTag,
		StartDate:  startDate,
		EndDate:    endDate,
		MaxNotes:   req.MaxNotes,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "insight served", "references", len(result.References), "degraded", result.Degraded)
	writeJSON(ctx, w, http.StatusOK, InsightResponse{
		Answer:     result.Answer,
		References: result.References,
		Degraded:   result.Degraded,
	})
}
