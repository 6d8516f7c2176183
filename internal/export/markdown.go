// Package export renders notes as markdown documents and HTML previews.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"notevault-ai/internal/storage"
)

// Markdown renders the canonical export document for a note: title, metadata
// block, summary, content, entities, action items and topics.
func Markdown(note *storage.NoteRecord) string {
	var b strings.Builder

	title := note.Title
	if title == "" {
		title = "Untitled Note"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("---\n")
	fmt.Fprintf(&b, "**Created:** %s\n", note.CreatedAt.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**Category:** %s\n", note.PrimaryTag)
	fmt.Fprintf(&b, "**Source:** %s\n", note.Source)
	if len(note.SecondaryTags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(note.SecondaryTags, ", "))
	}
	b.WriteString("---\n\n")

	if note.Summary != "" {
		b.WriteString("## Summary\n")
		fmt.Fprintf(&b, "%s\n\n", note.Summary)
	}

	b.WriteString("## Content\n")
	fmt.Fprintf(&b, "%s\n\n", note.CanonicalText())

	entities := note.Entities
	if len(entities.People)+len(entities.Places)+len(entities.Dates)+len(entities.Organizations) > 0 {
		b.WriteString("## Key Entities\n")
		writeEntityLine(&b, "People", entities.People)
		writeEntityLine(&b, "Places", entities.Places)
		writeEntityLine(&b, "Dates", entities.Dates)
		writeEntityLine(&b, "Organizations", entities.Organizations)
		b.WriteString("\n")
	}

	if len(note.ActionableItems) > 0 {
		b.WriteString("## Action Items\n")
		for _, item := range note.ActionableItems {
			fmt.Fprintf(&b, "- [ ] %s", item.Task)
			if item.Deadline != nil && *item.Deadline != "" {
				fmt.Fprintf(&b, " (Due: %s)", *item.Deadline)
			}
			fmt.Fprintf(&b, " [Priority: %s]\n", item.Priority)
		}
		b.WriteString("\n")
	}

	if len(note.Topics) > 0 {
		fmt.Fprintf(&b, "**Topics:** %s\n", strings.Join(note.Topics, ", "))
	}

	return b.String()
}

// HTML renders the export document as HTML for the preview endpoint.
func HTML(note *storage.NoteRecord) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(note)), &buf); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.String(), nil
}

// Filename builds the export filename: date prefix plus a sanitized,
// length-capped title.
func Filename(note *storage.NoteRecord) string {
	title := note.Title
	if title == "" {
		title = "Untitled"
	}

	var safe strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			safe.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			safe.WriteRune(r)
		}
	}
	name := strings.TrimSpace(safe.String())
	if name == "" {
		name = "Untitled"
	}
	if len(name) > 50 {
		name = name[:50]
	}

	return fmt.Sprintf("%s_%s.md", note.CreatedAt.UTC().Format("2006-01-02"), name)
}

func writeEntityLine(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:** %s\n", label, strings.Join(values, ", "))
}
