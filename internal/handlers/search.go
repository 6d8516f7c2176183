package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/search"
)

// Searcher is the slice of the retrieval coordinator the handler needs.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// SearchHandler handles POST /api/v1/search.
type SearchHandler struct {
	coordinator Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(coordinator Searcher) *SearchHandler {
	return &SearchHandler{coordinator: coordinator}
}

// SearchRequest is the HTTP payload for a search call.
type SearchRequest struct {
	Query       string `json:"query,omitempty"`
	PrimaryTag  string `json:"primary_tag,omitempty"`
	Source      string `json:"source,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Page        int    `json:"page,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
	UseSemantic bool   `json:"use_semantic,omitempty"`
}

// SearchResultResponse is one ranked hit.
type SearchResultResponse struct {
	Note       NoteResponse `json:"note"`
	Similarity float32      `json:"similarity,omitempty"`
}

// SearchResponse is the paginated search payload.
type SearchResponse struct {
	Results  []SearchResultResponse `json:"results"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	Degraded bool                   `json:"degraded"`
}

// ServeHTTP handles search requests. Index or embedding trouble degrades to
// keyword search and is reported via the degraded flag, never as an error.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
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

	page := req.Page
	if page == 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = 20
	}

	result, err := h.coordinator.Search(ctx, search.Request{
		UserID:     userID(r),
		Query:      req.Query,
		PrimaryTag: req.PrimaryTag,
		Source:     req.Source,
		StartDate:  startDate,
		EndDate:    endDate,
		Page:       page,
		PageSize:   pageSize,
		Semantic:   req.UseSemantic,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := SearchResponse{
		Results:  make([]SearchResultResponse, 0, len(result.Results)),
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
		Degraded: result.Degraded,
	}
	for _, hit := range result.Results {
		resp.Results = append(resp.Results, SearchResultResponse{
			Note:       toNoteResponse(hit.Note),
			Similarity: hit.Similarity,
		})
	}

	logger.InfoContext(ctx, "search completed",
		"results", len(resp.Results),
		"total", resp.Total,
		"semantic", req.UseSemantic,
		"degraded", resp.Degraded,
	)
	writeJSON(ctx, w, http.StatusOK, resp)
}
