package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/llm"
	"notevault-ai/internal/search"
	"notevault-ai/internal/service"
)

// Request describes one insight query over a user's notes.
type Request struct {
	UserID     string
	Query      string
	PrimaryTag string
	StartDate  *time.Time
	EndDate    *time.Time
	// MaxNotes bounds the retrieval shortlist. 0 means the default of 5;
	// values above 20 are capped.
	MaxNotes int
}

// Response is a generated answer plus the notes that contributed to it.
type Response struct {
	Answer string
	// References are the IDs of the notes included in the prompt context,
	// in retrieval rank order.
	References []string
	// Degraded is true when retrieval fell back to keyword search.
	Degraded bool
}

// Searcher is the slice of the retrieval coordinator the engine needs.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// LLMClient is the slice of the chat client the engine needs.
type LLMClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Engine answers free-form questions over a user's notes: retrieve a
// shortlist via the search coordinator, assemble a context block, and ask the
// LLM. Unlike classification there is no fallback: an LLM failure surfaces as
// an external-service error.
type Engine struct {
	searcher Searcher
	client   LLMClient
	logger   *slog.Logger
}

// NewEngine creates a new insight engine.
func NewEngine(searcher Searcher, client LLMClient) *Engine {
	return &Engine{
		searcher: searcher,
		client:   client,
		logger:   slog.Default(),
	}
}

// Generate answers the request's query from the user's notes.
func (e *Engine) Generate(ctx context.Context, req Request) (Response, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Query) == "" {
		return Response{}, &service.ValidationError{Field: "query", Message: "query is required"}
	}

	maxNotes := req.MaxNotes
	if maxNotes == 0 {
		maxNotes = 5
	}
	if maxNotes > 20 {
		maxNotes = 20
	}

	result, err := e.searcher.Search(ctx, search.Request{
		UserID:     req.UserID,
		Query:      req.Query,
		PrimaryTag: req.PrimaryTag,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Page:       1,
		PageSize:   maxNotes,
		Semantic:   true,
	})
	if err != nil {
		return Response{}, fmt.Errorf("failed to retrieve notes: %w", err)
	}

	if len(result.Results) == 0 {
		logger.InfoContext(ctx, "insight query found no notes", "query_length", len(req.Query))
		return Response{
			Answer:     "I couldn't find any notes relevant to this question.",
			References: []string{},
			Degraded:   result.Degraded,
		}, nil
	}

	var contextBuilder strings.Builder
	contextBuilder.WriteString("--- Context from notes ---\n\n")
	references := make([]string, 0, len(result.Results))
	for _, r := range result.Results {
		note := r.Note
		references = append(references, note.ID)

		fmt.Fprintf(&contextBuilder, "[%s] %s (%s)\n", note.PrimaryTag, note.Title, note.CreatedAt.Format("2006-01-02"))
		if note.Summary != "" {
			fmt.Fprintf(&contextBuilder, "Summary: %s\n", note.Summary)
		}
		fmt.Fprintf(&contextBuilder, "Content: %s\n\n", note.CanonicalText())
	}
	contextBuilder.WriteString("--- End Context ---")

	systemPrompt := "You are a helpful assistant that answers questions based on the provided context from the user's personal notes. " +
		"Answer using only the information from the context below. If the context doesn't contain " +
		"enough information to answer the question, say so."

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("%s\n\n%s", req.Query, contextBuilder.String())},
	}

	answer, err := e.client.ChatWithMessages(ctx, messages, llm.ChatParams{
		Temperature: llm.Temp(0.7),
	})
	if err != nil {
		logger.ErrorContext(ctx, "insight LLM call failed", "error", err)
		return Response{}, service.WrapError(service.ErrExternalService, "failed to generate insight")
	}

	logger.InfoContext(ctx, "insight generated",
		"notes_used", len(references),
		"answer_length", len(answer),
		"degraded", result.Degraded,
	)

	return Response{
		Answer:     answer,
		References: references,
		Degraded:   result.Degraded,
	}, nil
}
