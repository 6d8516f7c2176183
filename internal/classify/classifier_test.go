package classify

import (
	"context"
	"errors"
	"testing"

	"notevault-ai/internal/llm"
)

// stubLLM returns a canned response or error for ChatWithMessages.
type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) ChatWithMessages(_ context.Context, _ []llm.Message, _ llm.ChatParams) (string, error) {
	return s.response, s.err
}

func TestClassifier_Classify_ParsesLLMResponse(t *testing.T) {
	response := `{
		"title": "Quarterly planning",
		"summary": "Notes from the Q4 planning session.",
		"primary_tag": "Work",
		"secondary_tags": ["planning"],
		"key_entities": {"people": ["Dana"], "places": [], "dates": ["Q4"], "organizations": []},
		"actionable_items": [{"task": "send minutes", "deadline": null, "priority": "high"}],
		"topics": ["planning"],
		"sentiment": "neutral",
		"priority": "high"
	}`

	c := NewClassifier(&stubLLM{response: response})
	got := c.Classify(context.Background(), "Q4 planning session with Dana")

	if got.Title != "Quarterly planning" {
		t.Errorf("Title = %v, want Quarterly planning", got.Title)
	}
	if got.PrimaryTag != "Work" {
		t.Errorf("PrimaryTag = %v, want Work", got.PrimaryTag)
	}
	if len(got.ActionableItems) != 1 || got.ActionableItems[0].Priority != "high" {
		t.Errorf("ActionableItems = %+v, want one high-priority item", got.ActionableItems)
	}
	if len(got.Entities.People) != 1 || got.Entities.People[0] != "Dana" {
		t.Errorf("Entities.People = %v, want [Dana]", got.Entities.People)
	}
}

func TestClassifier_Classify_StripsMarkdownFences(t *testing.T) {
	response := "```json\n{\"title\": \"Fenced\", \"summary\": \"s\", \"primary_tag\": \"Ideas\", \"sentiment\": \"positive\", \"priority\": \"low\"}\n```"

	c := NewClassifier(&stubLLM{response: response})
	got := c.Classify(context.Background(), "some idea")

	if got.Title != "Fenced" {
		t.Errorf("Title = %v, want Fenced", got.Title)
	}
	if got.PrimaryTag != "Ideas" {
		t.Errorf("PrimaryTag = %v, want Ideas", got.PrimaryTag)
	}
	if got.Sentiment != "positive" {
		t.Errorf("Sentiment = %v, want positive", got.Sentiment)
	}
}

func TestClassifier_Classify_NormalizesPartialResponse(t *testing.T) {
	// Valid JSON missing most fields: the parse boundary must fill defaults
	// rather than fall back or leave nils.
	c := NewClassifier(&stubLLM{response: `{"primary_tag": "NotARealTag"}`})
	got := c.Classify(context.Background(), "meeting notes about something")

	if got.PrimaryTag != "Other" {
		t.Errorf("PrimaryTag = %v, want Other (coerced)", got.PrimaryTag)
	}
	if got.Title == "" || got.Summary == "" {
		t.Error("Title/Summary not defaulted from text")
	}
	if got.SecondaryTags == nil || got.Topics == nil || got.ActionableItems == nil {
		t.Error("list fields not defaulted to empty")
	}
	if got.Entities.Organizations == nil {
		t.Error("entity buckets not defaulted to empty")
	}
	if got.Sentiment != "neutral" || got.Priority != "medium" {
		t.Errorf("Sentiment/Priority = %v/%v, want neutral/medium", got.Sentiment, got.Priority)
	}
}

func TestClassifier_Classify_AcceptsCompaniesKey(t *testing.T) {
	response := `{"title": "t", "summary": "s", "primary_tag": "Work",
		"key_entities": {"people": [], "places": [], "dates": [], "companies": ["Acme"]}}`

	c := NewClassifier(&stubLLM{response: response})
	got := c.Classify(context.Background(), "met Acme")

	if len(got.Entities.Organizations) != 1 || got.Entities.Organizations[0] != "Acme" {
		t.Errorf("Entities.Organizations = %v, want [Acme]", got.Entities.Organizations)
	}
}

func TestClassifier_Classify_FallsBackOnError(t *testing.T) {
	c := NewClassifier(&stubLLM{err: errors.New("connection refused")})
	got := c.Classify(context.Background(), "meeting with the client tomorrow")

	// Fallback keyword classification, not a zero value.
	if got.PrimaryTag != "Work" {
		t.Errorf("PrimaryTag = %v, want Work (fallback)", got.PrimaryTag)
	}
	if got.Entities.People == nil {
		t.Error("fallback produced nil entity bucket")
	}
}

func TestClassifier_Classify_FallsBackOnGarbage(t *testing.T) {
	c := NewClassifier(&stubLLM{response: "I'm sorry, I can't produce JSON today."})
	got := c.Classify(context.Background(), "study for the biology course")

	if got.PrimaryTag != "Learning" {
		t.Errorf("PrimaryTag = %v, want Learning (fallback)", got.PrimaryTag)
	}
}
