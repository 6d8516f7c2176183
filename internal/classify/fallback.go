package classify

import "strings"

// categoryKeywords maps categories to trigger keywords. Order matters:
// categories are checked in fallbackOrder and the first match wins.
var categoryKeywords = map[string][]string{
	"Work":     {"meeting", "project", "deadline", "client", "email"},
	"Personal": {"family", "friend", "home", "birthday"},
	"Travel":   {"flight", "trip", "airport", "hotel"},
	"Ideas":    {"idea", "brainstorm", "concept"},
	"Projects": {"build", "develop", "launch"},
	"Health":   {"doctor", "gym", "exercise", "medicine"},
	"Learning": {"learn", "study", "course", "tutorial"},
	"Finance":  {"budget", "expense", "bank", "invoice"},
	"Shopping": {"buy", "order", "groceries"},
}

var fallbackOrder = []string{
	"Work", "Personal", "Travel", "Ideas", "Projects",
	"Health", "Learning", "Finance", "Shopping",
}

var (
	urgencyWords   = []string{"urgent", "asap", "immediately", "critical"}
	lowWords       = []string{"maybe", "someday"}
	actionKeywords = []string{"need to", "have to", "must", "should", "discuss", "schedule", "review", "follow up"}
)

// Fallback produces a deterministic, schema-complete classification from
// keyword lookup alone. It is used whenever the LLM is unavailable or its
// output cannot be parsed, and must never miss a field: downstream indexing
// assumes the full shape unconditionally.
func Fallback(text string) Classification {
	lower := strings.ToLower(text)

	primaryTag := "Other"
	for _, cat := range fallbackOrder {
		if containsAny(lower, categoryKeywords[cat]) {
			primaryTag = cat
			break
		}
	}

	priority := "medium"
	if containsAny(lower, urgencyWords) {
		priority = "high"
	} else if containsAny(lower, lowWords) {
		priority = "low"
	}

	actionableItems := []ActionItem{}
	if containsAny(lower, actionKeywords) {
		actionableItems = append(actionableItems, ActionItem{
			Task:     truncate(text, 100),
			Deadline: nil,
			Priority: priority,
		})
	}

	return Classification{
		Title:           truncate(text, 60),
		Summary:         truncate(text, 150),
		PrimaryTag:      primaryTag,
		SecondaryTags:   []string{},
		Entities:        Entities{People: []string{}, Places: []string{}, Dates: []string{}, Organizations: []string{}},
		ActionableItems: actionableItems,
		Topics:          []string{},
		Sentiment:       "neutral",
		Priority:        priority,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
