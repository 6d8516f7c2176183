package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"notevault-ai/internal/classify"
	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/storage"
	"notevault-ai/internal/vectorstore"
)

// ErrPartialReindex indicates a reindex finished but some notes could not be
// re-embedded. The index still holds every entry that succeeded.
var ErrPartialReindex = errors.New("reindex completed with errors")

// Classifier extracts structured metadata from note text. Implementations
// never fail; they degrade internally instead.
type Classifier interface {
	Classify(ctx context.Context, text string) classify.Classification
}

// Embedder generates a vector for a single text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Processor runs the enrichment pipeline for a note: classification, then
// embedding, then vector index upsert. The relational store is authoritative;
// the index is derived state that can always be rebuilt via Reindex.
type Processor struct {
	store           storage.NoteStore
	vectors         vectorstore.VectorStore
	classifier      Classifier
	embedder        Embedder
	collection      string
	classifyTimeout time.Duration
	embedTimeout    time.Duration
	reindexWorkers  int
	logger          *slog.Logger
}

// NewProcessor creates a new note processing pipeline.
func NewProcessor(
	store storage.NoteStore,
	vectors vectorstore.VectorStore,
	classifier Classifier,
	embedder Embedder,
	collection string,
	classifyTimeout, embedTimeout time.Duration,
) *Processor {
	return &Processor{
		store:           store,
		vectors:         vectors,
		classifier:      classifier,
		embedder:        embedder,
		collection:      collection,
		classifyTimeout: classifyTimeout,
		embedTimeout:    embedTimeout,
		reindexWorkers:  4,
		logger:          slog.Default(),
	}
}

// Process enriches and indexes a persisted note. canonicalText is the single
// text snapshot used for both classification and embedding, so the stored
// metadata and the indexed vector always describe the same content.
//
// The note always reaches a terminal status: completed when metadata was
// persisted (even if embedding or indexing failed, in which case the note
// stays findable by keyword search and EmbeddingID stays empty), failed when
// the metadata write itself failed.
func (p *Processor) Process(ctx context.Context, note *storage.NoteRecord, canonicalText string) error {
	logger := contextutil.LoggerFromContext(ctx)

	note.ProcessingStatus = storage.StatusProcessing
	note.ErrorMessage = ""
	if err := p.store.Update(ctx, note); err != nil {
		return fmt.Errorf("failed to mark note processing: %w", err)
	}

	classifyCtx, cancel := context.WithTimeout(ctx, p.classifyTimeout)
	classification := p.classifier.Classify(classifyCtx, canonicalText)
	cancel()

	note.Title = classification.Title
	note.Summary = classification.Summary
	note.PrimaryTag = classification.PrimaryTag
	note.SecondaryTags = classification.SecondaryTags
	note.Entities = classification.Entities
	note.ActionableItems = classification.ActionableItems
	note.Topics = classification.Topics
	note.Sentiment = classification.Sentiment
	note.Priority = classification.Priority
	note.ProcessingStatus = storage.StatusCompleted

	if err := p.store.Update(ctx, note); err != nil {
		p.markFailed(ctx, note, err)
		return fmt.Errorf("failed to persist note metadata: %w", err)
	}

	if err := p.index(ctx, note, canonicalText); err != nil {
		// The note is already completed and keyword-searchable. Index entry
		// can be recovered later via Reindex.
		logger.WarnContext(ctx, "note left unindexed", "note_id", note.ID, "error", err)
		return nil
	}

	note.EmbeddingID = note.ID
	if err := p.store.Update(ctx, note); err != nil {
		logger.WarnContext(ctx, "failed to record embedding ID", "note_id", note.ID, "error", err)
		return nil
	}

	logger.InfoContext(ctx, "note processed", "note_id", note.ID, "primary_tag", note.PrimaryTag)
	return nil
}

// index embeds the snapshot and upserts the note's single vector entry.
func (p *Processor) index(ctx context.Context, note *storage.NoteRecord, canonicalText string) error {
	embedCtx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	defer cancel()

	vec, err := p.embedder.EmbedText(embedCtx, canonicalText)
	if err != nil {
		return fmt.Errorf("failed to embed note: %w", err)
	}

	point := vectorstore.Point{
		ID:  note.ID,
		Vec: vec,
		Meta: map[string]any{
			"user_id":     note.UserID,
			"primary_tag": note.PrimaryTag,
			"source":      note.Source,
			"created_at":  note.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
	if err := p.vectors.Upsert(ctx, p.collection, []vectorstore.Point{point}); err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}
	return nil
}

// markFailed records a terminal failure on the note. Best-effort: if even
// this write fails there is nothing more to do but log.
func (p *Processor) markFailed(ctx context.Context, note *storage.NoteRecord, cause error) {
	logger := contextutil.LoggerFromContext(ctx)

	note.ProcessingStatus = storage.StatusFailed
	note.ErrorMessage = cause.Error()
	if err := p.store.Update(ctx, note); err != nil {
		logger.ErrorContext(ctx, "failed to mark note failed", "note_id", note.ID, "error", err)
	}
}

// RemoveFromIndex deletes the note's vector entry. Best-effort: the caller
// deletes the relational row regardless, and a stale index entry is filtered
// out at search time and cleaned up by the next Reindex.
func (p *Processor) RemoveFromIndex(ctx context.Context, noteID string) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := p.vectors.Delete(ctx, p.collection, []string{noteID}); err != nil {
		logger.WarnContext(ctx, "failed to delete vector entry", "note_id", noteID, "error", err)
	}
}

// Reindex rebuilds index entries for all completed notes of a user, or of
// every user when userID is empty. Individual note failures are logged and
// counted but do not stop the rebuild.
func (p *Processor) Reindex(ctx context.Context, userID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	notes, total, err := p.store.List(ctx, userID, storage.Filter{Status: storage.StatusCompleted}, 0, reindexBatchLimit)
	if err != nil {
		return fmt.Errorf("failed to list notes for reindex: %w", err)
	}
	if total > len(notes) {
		logger.WarnContext(ctx, "reindex truncated to batch limit", "total", total, "limit", reindexBatchLimit)
	}

	logger.InfoContext(ctx, "starting reindex", "notes", len(notes))

	var errCount int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.reindexWorkers)

	results := make(chan error, len(notes))
	for _, note := range notes {
		note := note
		g.Go(func() error {
			if err := p.index(gctx, note, note.CanonicalText()); err != nil {
				logger.ErrorContext(gctx, "failed to reindex note", "note_id", note.ID, "error", err)
				results <- err
				return nil
			}
			if note.EmbeddingID == "" {
				note.EmbeddingID = note.ID
				if err := p.store.Update(gctx, note); err != nil {
					logger.WarnContext(gctx, "failed to record embedding ID", "note_id", note.ID, "error", err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	close(results)
	for range results {
		errCount++
	}

	logger.InfoContext(ctx, "reindex completed", "notes", len(notes), "errors", errCount)
	if errCount > 0 {
		return fmt.Errorf("%w: %d of %d notes failed", ErrPartialReindex, errCount, len(notes))
	}
	return nil
}

const reindexBatchLimit = 10000
