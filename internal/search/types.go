package search

import (
	"time"

	"notevault-ai/internal/storage"
)

// Request describes one search call. Page and PageSize below 1 are clamped
// to 1 rather than rejected.
type Request struct {
	UserID     string
	Query      string
	PrimaryTag string
	Source     string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
	// Semantic requests vector ranking. It is honored only when Query is
	// non-empty and the index is reachable; otherwise the coordinator
	// degrades to the keyword path and sets Response.Degraded.
	Semantic bool
}

// Result is one ranked note.
type Result struct {
	Note *storage.NoteRecord
	// Similarity is the cosine score in [0, 1] on the semantic path, 0 on
	// the keyword path.
	Similarity float32
}

// Response is one page of results. Total is the count of the filtered
// relational universe, not of the vector shortlist.
type Response struct {
	Results  []Result
	Total    int
	Page     int
	PageSize int
	// Degraded is true when semantic ranking was requested but the response
	// was produced by the keyword path instead.
	Degraded bool
}
