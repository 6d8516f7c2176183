package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks notevault-ai/internal/vectorstore VectorStore

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the vector index backend is unreachable. It is
// distinct from an empty result set: an empty slice means "legitimately zero
// matches", ErrUnavailable means "can't search". Callers degrade to
// keyword-only behavior on this error.
var ErrUnavailable = errors.New("vector index unavailable")

// Point represents a vector entry with a filtering payload. Points are keyed
// by the owning note's ID (1:1 note to entry).
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a single nearest-neighbor hit.
type SearchResult struct {
	// PointID is the note ID of the matched entry.
	PointID string
	// Score is the cosine similarity, clamped to [0, 1]; higher is more
	// similar.
	Score float32
	Meta  map[string]any
}

// VectorStore defines the interface for vector index operations.
type VectorStore interface {
	// Upsert inserts or atomically replaces entries by ID. A concurrent
	// search observes either the old or the new entry, never a mix.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to k nearest neighbors to query under cosine
	// similarity, restricted to entries whose payload matches every
	// key/value pair in filters (conjunctive equality). Results are ordered
	// by descending score.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Delete removes entries by ID. Deleting a non-existent ID is not an
	// error.
	Delete(ctx context.Context, collection string, ids []string) error
}
