package handlers

import (
	"context"
	"net/http"
	"time"

	"notevault-ai/internal/contextutil"
)

// IndexPinger checks reachability of the vector index backend.
type IndexPinger interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
}

// HealthHandler handles GET /health. The vector index is reported but never
// makes the service unhealthy: search degrades to keyword-only without it.
type HealthHandler struct {
	index        IndexPinger
	collection   string
	checkTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(index IndexPinger, collection string) *HealthHandler {
	return &HealthHandler{
		index:        index,
		collection:   collection,
		checkTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// ServeHTTP reports service health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	checks := map[string]string{"store": "ok"}
	status := "healthy"

	exists, err := h.index.CollectionExists(checkCtx, h.collection)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "vector index health check failed", "error", err)
		checks["vector_index"] = "error"
		status = "degraded"
	case !exists:
		checks["vector_index"] = "missing_collection"
		status = "degraded"
	default:
		checks["vector_index"] = "ok"
	}

	writeJSON(ctx, w, http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
