package classify

import "strings"

// PrimaryTags is the fixed category taxonomy. Classification output outside
// this set is coerced to "Other".
var PrimaryTags = []string{
	"Work", "Personal", "Travel", "Ideas", "Projects",
	"Health", "Learning", "Finance", "Shopping", "Other",
}

// Entities holds the four extracted entity buckets. Buckets are never nil;
// an absent bucket is an empty list.
type Entities struct {
	People        []string `json:"people"`
	Places        []string `json:"places"`
	Dates         []string `json:"dates"`
	Organizations []string `json:"organizations"`
}

// ActionItem is a single extracted actionable item.
type ActionItem struct {
	Task     string  `json:"task"`
	Deadline *string `json:"deadline"`
	Priority string  `json:"priority"`
}

// Classification is the structured metadata extracted from a note's
// canonical text. Every field is always populated: the LLM path normalizes
// its output and the fallback path produces complete defaults.
type Classification struct {
	Title           string       `json:"title"`
	Summary         string       `json:"summary"`
	PrimaryTag      string       `json:"primary_tag"`
	SecondaryTags   []string     `json:"secondary_tags"`
	Entities        Entities     `json:"key_entities"`
	ActionableItems []ActionItem `json:"actionable_items"`
	Topics          []string     `json:"topics"`
	Sentiment       string       `json:"sentiment"`
	Priority        string       `json:"priority"`
}

// Normalize coerces a decoded classification into the schema the rest of the
// system assumes unconditionally: enums restricted to their sets, nil lists
// replaced with empty ones, missing title/summary defaulted from the source
// text. This is the defaulting boundary for loosely shaped LLM output.
func (c *Classification) Normalize(text string) {
	if strings.TrimSpace(c.Title) == "" {
		c.Title = truncate(text, 60)
	}
	if strings.TrimSpace(c.Summary) == "" {
		c.Summary = truncate(text, 150)
	}
	if !validPrimaryTag(c.PrimaryTag) {
		c.PrimaryTag = "Other"
	}
	if c.SecondaryTags == nil {
		c.SecondaryTags = []string{}
	}
	if c.Topics == nil {
		c.Topics = []string{}
	}
	if c.Entities.People == nil {
		c.Entities.People = []string{}
	}
	if c.Entities.Places == nil {
		c.Entities.Places = []string{}
	}
	if c.Entities.Dates == nil {
		c.Entities.Dates = []string{}
	}
	if c.Entities.Organizations == nil {
		c.Entities.Organizations = []string{}
	}
	if c.ActionableItems == nil {
		c.ActionableItems = []ActionItem{}
	}
	for i := range c.ActionableItems {
		if !validPriority(c.ActionableItems[i].Priority) {
			c.ActionableItems[i].Priority = "medium"
		}
		if c.ActionableItems[i].Task == "" {
			c.ActionableItems[i].Task = truncate(text, 100)
		}
	}
	switch c.Sentiment {
	case "positive", "neutral", "negative":
	default:
		c.Sentiment = "neutral"
	}
	if !validPriority(c.Priority) {
		c.Priority = "medium"
	}
}

func validPrimaryTag(tag string) bool {
	for _, t := range PrimaryTags {
		if t == tag {
			return true
		}
	}
	return false
}

func validPriority(p string) bool {
	return p == "high" || p == "medium" || p == "low"
}

// truncate returns at most n bytes of s, cut at a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
