package classify

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks notevault-ai/internal/classify LLMClient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/llm"
)

// LLMClient is the slice of the chat client the classifier needs
// (consumer-first interface).
type LLMClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Classifier extracts structured metadata from note text using an LLM, with
// a deterministic keyword fallback when the LLM is unavailable or returns
// garbage. Classify never fails: any upstream error degrades to the fallback.
type Classifier struct {
	client LLMClient
	logger *slog.Logger
}

// NewClassifier creates a new Classifier. client may not be nil; callers
// that have no LLM configured should still pass a client and rely on the
// fallback triggering per call.
func NewClassifier(client LLMClient) *Classifier {
	return &Classifier{
		client: client,
		logger: slog.Default(),
	}
}

// Classify extracts metadata from the given canonical text snapshot.
// The returned Classification is always schema-complete.
func (c *Classifier) Classify(ctx context.Context, text string) Classification {
	logger := contextutil.LoggerFromContext(ctx)

	raw, err := c.client.ChatWithMessages(ctx, []llm.Message{
		{Role: "user", Content: buildPrompt(text)},
	}, llm.ChatParams{
		MaxTokens:   2048,
		Temperature: llm.Temp(0.3),
	})
	if err != nil {
		logger.WarnContext(ctx, "classification LLM call failed, using fallback", "error", err)
		return Fallback(text)
	}

	classification, err := parseResponse(raw, text)
	if err != nil {
		logger.WarnContext(ctx, "classification response unparsable, using fallback", "error", err)
		return Fallback(text)
	}

	logger.InfoContext(ctx, "note classified", "primary_tag", classification.PrimaryTag, "topics", len(classification.Topics))
	return classification
}

// buildPrompt renders the extraction prompt for a note.
func buildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant that analyzes personal notes and extracts structured metadata.\n\n")
	b.WriteString("Analyze the following note and return ONLY valid JSON.\n\n")
	fmt.Fprintf(&b, "Note Content: %q\n\n", text)
	b.WriteString(`Return exactly this structure:

{
  "title": "5-10 word title",
  "summary": "1-2 sentence summary",
  "primary_tag": "Work|Personal|Travel|Ideas|Projects|Health|Learning|Finance|Shopping|Other",
  "secondary_tags": ["tag1", "tag2", "tag3"],
  "key_entities": {
    "people": [],
    "places": [],
    "dates": [],
    "organizations": []
  },
  "actionable_items": [
    {
      "task": "",
      "deadline": null,
      "priority": "high|medium|low"
    }
  ],
  "topics": ["topic1", "topic2"],
  "sentiment": "positive|neutral|negative",
  "priority": "high|medium|low"
}

RULES:
- Return ONLY JSON. No markdown. No explanation.
- If no action items, use an empty array [].
- Choose tags carefully.
- Prioritize correctness and clean JSON.
`)
	return b.String()
}

// parseResponse strips markdown fences, decodes the JSON payload and
// normalizes it into a schema-complete Classification.
func parseResponse(raw, text string) (Classification, error) {
	cleaned := stripFences(raw)

	// Tolerate the "companies" key the model sometimes emits instead of
	// "organizations".
	var loose struct {
		Classification
		Entities struct {
			People        []string `json:"people"`
			Places        []string `json:"places"`
			Dates         []string `json:"dates"`
			Organizations []string `json:"organizations"`
			Companies     []string `json:"companies"`
		} `json:"key_entities"`
	}
	if err := json.Unmarshal([]byte(cleaned), &loose); err != nil {
		return Classification{}, fmt.Errorf("failed to decode classification JSON: %w", err)
	}

	classification := loose.Classification
	classification.Entities = Entities{
		People:        loose.Entities.People,
		Places:        loose.Entities.Places,
		Dates:         loose.Entities.Dates,
		Organizations: loose.Entities.Organizations,
	}
	if classification.Entities.Organizations == nil {
		classification.Entities.Organizations = loose.Entities.Companies
	}

	classification.Normalize(text)
	return classification, nil
}

// stripFences removes a surrounding markdown code block, if any.
func stripFences(s string) string {
	cleaned := strings.TrimSpace(s)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
