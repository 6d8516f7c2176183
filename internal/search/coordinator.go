package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/service"
	"notevault-ai/internal/storage"
	"notevault-ai/internal/vectorstore"
)

const maxPageSize = 100

// maxShortlist bounds the vector shortlist. SQLite allows 999 bound
// variables by default and each shortlist ID is one placeholder.
const maxShortlist = 500

// Embedder generates a vector for a single text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Coordinator combines the relational store and the vector index into one
// search operation. The store is the source of truth: the index only ranks,
// and every index hit is re-checked against the store before it is returned.
type Coordinator struct {
	store      storage.NoteStore
	vectors    vectorstore.VectorStore
	embedder   Embedder
	collection string
	overfetch  int
	logger     *slog.Logger
}

// NewCoordinator creates a new search coordinator. overfetch scales the
// vector shortlist relative to the page size so that post-filtering still
// leaves a full page; values below 2 are raised to 2.
func NewCoordinator(
	store storage.NoteStore,
	vectors vectorstore.VectorStore,
	embedder Embedder,
	collection string,
	overfetch int,
) *Coordinator {
	if overfetch < 2 {
		overfetch = 2
	}
	return &Coordinator{
		store:      store,
		vectors:    vectors,
		embedder:   embedder,
		collection: collection,
		overfetch:  overfetch,
		logger:     slog.Default(),
	}
}

// Search runs one search request. Index or embedding trouble never fails the
// request: the coordinator degrades to keyword search and marks the response.
// Only caller-shape errors (missing owner, malformed date range) are returned.
func (c *Coordinator) Search(ctx context.Context, req Request) (*Response, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.UserID == "" {
		return nil, &service.ValidationError{Field: "user_id", Message: "user_id is required"}
	}
	if req.StartDate != nil && req.EndDate != nil && req.StartDate.After(*req.EndDate) {
		return nil, &service.ValidationError{Field: "date_range", Message: "start date is after end date"}
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 1
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}
	req.Query = strings.TrimSpace(req.Query)

	filter := storage.Filter{
		PrimaryTag: req.PrimaryTag,
		Source:     req.Source,
		Status:     storage.StatusCompleted,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}

	if req.Semantic && req.Query != "" {
		resp, err := c.semantic(ctx, req, filter)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, vectorstore.ErrUnavailable) && !isEmbedFailure(err) {
			return nil, err
		}
		logger.WarnContext(ctx, "semantic search degraded to keyword search", "error", err)
	}

	degraded := req.Semantic
	return c.keyword(ctx, req, filter, degraded)
}

// keyword is the relational-only path: substring match, newest first.
func (c *Coordinator) keyword(ctx context.Context, req Request, filter storage.Filter, degraded bool) (*Response, error) {
	filter.MatchText = req.Query
	offset := (req.Page - 1) * req.PageSize

	notes, total, err := c.store.List(ctx, req.UserID, filter, offset, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	results := make([]Result, 0, len(notes))
	for _, note := range notes {
		results = append(results, Result{Note: note})
	}
	return &Response{
		Results:  results,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Degraded: degraded,
	}, nil
}

// semantic ranks the filtered universe by vector similarity. The relational
// count of that universe is the pagination total; the shortlist only orders
// it (documented approximation).
func (c *Coordinator) semantic(ctx context.Context, req Request, filter storage.Filter) (*Response, error) {
	// Count the eligible universe first; an empty one never touches the
	// index.
	_, total, err := c.store.List(ctx, req.UserID, filter, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}
	if total == 0 {
		return &Response{Results: []Result{}, Page: req.Page, PageSize: req.PageSize}, nil
	}

	queryVec, err := c.embedder.EmbedText(ctx, req.Query)
	if err != nil {
		return nil, &embedFailure{err: err}
	}

	k := req.PageSize * c.overfetch
	if need := req.Page * req.PageSize * c.overfetch; need > k {
		k = need
	}
	// Every hit ID becomes one bound variable in the re-hydration query, so
	// the shortlist stays under SQLite's parameter limit. Pages beyond the
	// capped shortlist come back empty.
	if k > maxShortlist {
		k = maxShortlist
	}

	indexFilters := map[string]any{"user_id": req.UserID}
	if req.PrimaryTag != "" {
		indexFilters["primary_tag"] = req.PrimaryTag
	}
	if req.Source != "" {
		indexFilters["source"] = req.Source
	}

	hits, err := c.vectors.Search(ctx, c.collection, queryVec, k, indexFilters)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.PointID)
	}
	notes, err := c.store.ByIDs(ctx, req.UserID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}

	// Re-check every hit against the store in rank order: the index may be
	// stale (deleted rows, edited metadata) relative to the store.
	ranked := make([]Result, 0, len(hits))
	for _, hit := range hits {
		note, ok := notes[hit.PointID]
		if !ok || !c.eligible(note, req) {
			continue
		}
		ranked = append(ranked, Result{Note: note, Similarity: hit.Score})
	}

	start := (req.Page - 1) * req.PageSize
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + req.PageSize
	if end > len(ranked) {
		end = len(ranked)
	}

	return &Response{
		Results:  ranked[start:end],
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

// eligible re-applies the relational filters to a re-hydrated note.
func (c *Coordinator) eligible(note *storage.NoteRecord, req Request) bool {
	if note.ProcessingStatus != storage.StatusCompleted {
		return false
	}
	if req.PrimaryTag != "" && note.PrimaryTag != req.PrimaryTag {
		return false
	}
	if req.Source != "" && note.Source != req.Source {
		return false
	}
	if req.StartDate != nil && note.CreatedAt.Before(*req.StartDate) {
		return false
	}
	if req.EndDate != nil && note.CreatedAt.After(*req.EndDate) {
		return false
	}
	return true
}

// embedFailure marks an embedding error so Search can distinguish "degrade"
// from a genuine store failure.
type embedFailure struct {
	err error
}

func (e *embedFailure) Error() string { return e.err.Error() }
func (e *embedFailure) Unwrap() error { return e.err }

func isEmbedFailure(err error) bool {
	var ef *embedFailure
	return errors.As(err, &ef)
}
