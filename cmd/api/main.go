package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"notevault-ai/internal/classify"
	"notevault-ai/internal/config"
	"notevault-ai/internal/http"
	"notevault-ai/internal/insight"
	"notevault-ai/internal/llm"
	"notevault-ai/internal/pipeline"
	"notevault-ai/internal/search"
	"notevault-ai/internal/storage"
	"notevault-ai/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API captures free-form personal notes, enriches them with LLM
// classification and embeddings, and serves hybrid semantic/keyword search
// and question answering over the captured notes.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: NoteVault AI API
//   description: |
//     Personal notes API with automatic classification, vector indexing and
//     hybrid search. Notes are accepted over HTTP or a Telegram webhook,
//     enriched asynchronously, and queryable by keyword or semantic similarity.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	userRepo := storage.NewUserRepo(db)
	noteRepo := storage.NewNoteRepo(db)

	// Initialize Qdrant vector store
	ctx := context.Background()
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Create note enrichment pipeline
	classifier := classify.NewClassifier(llmClient)
	processor := pipeline.NewProcessor(
		noteRepo,
		vectorStore,
		classifier,
		embedder,
		cfg.QdrantCollection,
		cfg.ClassifyTimeout,
		cfg.EmbedTimeout,
	)
	slog.Info("Note pipeline initialized", "classify_timeout", cfg.ClassifyTimeout, "embed_timeout", cfg.EmbedTimeout)

	// Create search coordinator and insight engine
	coordinator := search.NewCoordinator(
		noteRepo,
		vectorStore,
		embedder,
		cfg.QdrantCollection,
		cfg.SearchOverfetch,
	)
	insightEngine := insight.NewEngine(coordinator, llmClient)
	slog.Info("Search coordinator initialized", "overfetch", cfg.SearchOverfetch)

	// Create router with dependencies
	deps := &http.Deps{
		Users:       userRepo,
		Notes:       noteRepo,
		Processor:   processor,
		Reindexer:   processor,
		Coordinator: coordinator,
		Insights:    insightEngine,
		Index:       vectorStore,
		Collection:  cfg.QdrantCollection,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
