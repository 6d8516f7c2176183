package storage

import (
	"time"

	"notevault-ai/internal/classify"
)

// Processing status values for a note. Transitions run forward only:
// pending -> processing -> completed | failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Input types.
const (
	InputText  = "text"
	InputAudio = "audio"
)

// NoteRecord is a note row in the database. The relational store is the
// source of truth for every field; the vector index only mirrors the ID and
// a filtering payload.
type NoteRecord struct {
	ID        string // UUID
	UserID    string
	InputType string // "text" or "audio"
	Source    string // "telegram", "web", "api"

	OriginalText  string // for text input
	Transcription string // for audio input
	AudioURL      string
	AudioDuration int // seconds

	Title           string
	Summary         string
	PrimaryTag      string
	SecondaryTags   []string
	Entities        classify.Entities
	ActionableItems []classify.ActionItem
	Topics          []string
	Sentiment       string
	Priority        string
	Language        string

	// EmbeddingID references the vector index entry. Set to the note's own
	// ID once the note is indexed; empty means the note is invisible to
	// semantic search but still reachable by keyword search.
	EmbeddingID string

	SyncedToGDrive bool
	GDriveFileID   string
	GDriveFileURL  string

	ProcessingStatus string
	ErrorMessage     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanonicalText returns the single text snapshot used for both
// classification and embedding: the original text for text notes, the
// transcription for audio notes.
func (n *NoteRecord) CanonicalText() string {
	if n.InputType == InputAudio {
		return n.Transcription
	}
	return n.OriginalText
}

// UserRecord is a user row in the database.
type UserRecord struct {
	ID        string
	CreatedAt time.Time
}
