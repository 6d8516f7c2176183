package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks notevault-ai/internal/storage NoteStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"notevault-ai/internal/classify"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// Filter restricts a note listing. Zero values mean "no constraint".
type Filter struct {
	PrimaryTag string
	Source     string
	Status     string
	StartDate  *time.Time
	EndDate    *time.Time
	// MatchText applies a case-insensitive substring match over title,
	// summary, original text and transcription (OR across fields).
	MatchText string
}

// NoteStore defines the interface for note storage operations.
type NoteStore interface {
	// Get returns the note with the given ID owned by userID.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id, userID string) (*NoteRecord, error)
	// List returns the user's notes matching the filter, ordered by creation
	// time descending, plus the total count of matching rows before
	// offset/limit are applied. An empty userID lists across all users.
	List(ctx context.Context, userID string, f Filter, offset, limit int) ([]*NoteRecord, int, error)
	// ByIDs returns the subset of ids that exist and belong to userID,
	// keyed by note ID. Missing IDs are silently absent.
	ByIDs(ctx context.Context, userID string, ids []string) (map[string]*NoteRecord, error)
	// Create inserts a new note, generating an ID and timestamps if unset.
	Create(ctx context.Context, note *NoteRecord) error
	// Update persists all mutable fields of the note and bumps updated_at.
	Update(ctx context.Context, note *NoteRecord) error
	// Delete removes the note. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id, userID string) error
}

// NoteRepo provides methods for note operations.
// It implements the NoteStore interface.
type NoteRepo struct {
	db *sql.DB
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

const noteColumns = `id, user_id, input_type, source, original_text, transcription,
	audio_url, audio_duration, title, summary, primary_tag, secondary_tags,
	key_entities, actionable_items, topics, sentiment, priority, language,
	embedding_id, synced_to_gdrive, gdrive_file_id, gdrive_file_url,
	processing_status, error_message, created_at, updated_at`

// Get returns the note with the given ID owned by userID.
func (r *NoteRepo) Get(ctx context.Context, id, userID string) (*NoteRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id = ? AND user_id = ?",
		id, userID,
	)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}
	return note, nil
}

// List returns notes matching the filter plus the total matching count.
func (r *NoteRepo) List(ctx context.Context, userID string, f Filter, offset, limit int) ([]*NoteRecord, int, error) {
	where, args := buildWhere(userID, f)

	var total int
	countQuery := "SELECT COUNT(*) FROM notes " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notes: %w", err)
	}

	query := "SELECT " + noteColumns + " FROM notes " + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var notes []*NoteRecord
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, total, nil
}

// ByIDs returns the existing notes among ids, keyed by ID.
func (r *NoteRepo) ByIDs(ctx context.Context, userID string, ids []string) (map[string]*NoteRecord, error) {
	result := make(map[string]*NoteRecord, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, userID)

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id IN ("+placeholders+") AND user_id = ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes by IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		result[note.ID] = note
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return result, nil
}

// Create inserts a new note record.
func (r *NoteRepo) Create(ctx context.Context, note *NoteRecord) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
	if note.Language == "" {
		note.Language = "en"
	}
	if note.ProcessingStatus == "" {
		note.ProcessingStatus = StatusPending
	}

	secondaryTags, entities, actionableItems, topics, err := marshalMetadata(note)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.UserID, note.InputType, note.Source, note.OriginalText, note.Transcription,
		note.AudioURL, note.AudioDuration, note.Title, note.Summary, note.PrimaryTag, secondaryTags,
		entities, actionableItems, topics, note.Sentiment, note.Priority, note.Language,
		note.EmbeddingID, note.SyncedToGDrive, note.GDriveFileID, note.GDriveFileURL,
		note.ProcessingStatus, note.ErrorMessage, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

// Update persists the mutable fields of the note and bumps updated_at.
func (r *NoteRepo) Update(ctx context.Context, note *NoteRecord) error {
	note.UpdatedAt = time.Now().UTC()

	secondaryTags, entities, actionableItems, topics, err := marshalMetadata(note)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET
			title = ?, summary = ?, primary_tag = ?, secondary_tags = ?,
			key_entities = ?, actionable_items = ?, topics = ?, sentiment = ?,
			priority = ?, language = ?, embedding_id = ?, synced_to_gdrive = ?,
			gdrive_file_id = ?, gdrive_file_url = ?, processing_status = ?,
			error_message = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		note.Title, note.Summary, note.PrimaryTag, secondaryTags,
		entities, actionableItems, topics, note.Sentiment,
		note.Priority, note.Language, note.EmbeddingID, note.SyncedToGDrive,
		note.GDriveFileID, note.GDriveFileURL, note.ProcessingStatus,
		note.ErrorMessage, note.UpdatedAt,
		note.ID, note.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a note row.
func (r *NoteRepo) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// buildWhere assembles the WHERE clause for List from the owner and filter.
// An empty userID scopes to all users (admin reindex).
func buildWhere(userID string, f Filter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if userID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, userID)
	}

	if f.PrimaryTag != "" {
		clauses = append(clauses, "primary_tag = ?")
		args = append(args, f.PrimaryTag)
	}
	if f.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, f.Source)
	}
	if f.Status != "" {
		clauses = append(clauses, "processing_status = ?")
		args = append(args, f.Status)
	}
	if f.StartDate != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.EndDate.UTC())
	}
	if f.MatchText != "" {
		pattern := "%" + strings.ToLower(f.MatchText) + "%"
		clauses = append(clauses,
			"(LOWER(IFNULL(title,'')) LIKE ? OR LOWER(IFNULL(summary,'')) LIKE ? OR LOWER(IFNULL(original_text,'')) LIKE ? OR LOWER(IFNULL(transcription,'')) LIKE ?)")
		args = append(args, pattern, pattern, pattern, pattern)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanNote reads one note row, decoding the JSON metadata columns.
func scanNote(s scanner) (*NoteRecord, error) {
	var note NoteRecord
	var secondaryTags, entities, actionableItems, topics sql.NullString
	var originalText, transcription, audioURL, title, summary sql.NullString
	var primaryTag, sentiment, priority, embeddingID sql.NullString
	var gdriveFileID, gdriveFileURL, errorMessage sql.NullString
	var audioDuration sql.NullInt64

	err := s.Scan(
		&note.ID, &note.UserID, &note.InputType, &note.Source, &originalText, &transcription,
		&audioURL, &audioDuration, &title, &summary, &primaryTag, &secondaryTags,
		&entities, &actionableItems, &topics, &sentiment, &priority, &note.Language,
		&embeddingID, &note.SyncedToGDrive, &gdriveFileID, &gdriveFileURL,
		&note.ProcessingStatus, &errorMessage, &note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	note.OriginalText = originalText.String
	note.Transcription = transcription.String
	note.AudioURL = audioURL.String
	note.AudioDuration = int(audioDuration.Int64)
	note.Title = title.String
	note.Summary = summary.String
	note.PrimaryTag = primaryTag.String
	note.Sentiment = sentiment.String
	note.Priority = priority.String
	note.EmbeddingID = embeddingID.String
	note.GDriveFileID = gdriveFileID.String
	note.GDriveFileURL = gdriveFileURL.String
	note.ErrorMessage = errorMessage.String

	if err := unmarshalList(secondaryTags, &note.SecondaryTags); err != nil {
		return nil, fmt.Errorf("failed to decode secondary_tags: %w", err)
	}
	if err := unmarshalList(topics, &note.Topics); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}
	if entities.Valid && entities.String != "" {
		if err := json.Unmarshal([]byte(entities.String), &note.Entities); err != nil {
			return nil, fmt.Errorf("failed to decode key_entities: %w", err)
		}
	}
	if actionableItems.Valid && actionableItems.String != "" {
		if err := json.Unmarshal([]byte(actionableItems.String), &note.ActionableItems); err != nil {
			return nil, fmt.Errorf("failed to decode actionable_items: %w", err)
		}
	}

	return &note, nil
}

func unmarshalList(col sql.NullString, dest *[]string) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dest)
}

// marshalMetadata encodes the JSON metadata columns for writing.
func marshalMetadata(note *NoteRecord) (secondaryTags, entities, actionableItems, topics string, err error) {
	if note.SecondaryTags == nil {
		note.SecondaryTags = []string{}
	}
	if note.Topics == nil {
		note.Topics = []string{}
	}
	if note.ActionableItems == nil {
		note.ActionableItems = []classify.ActionItem{}
	}

	b, err := json.Marshal(note.SecondaryTags)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to encode secondary_tags: %w", err)
	}
	secondaryTags = string(b)

	b, err = json.Marshal(note.Entities)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to encode key_entities: %w", err)
	}
	entities = string(b)

	b, err = json.Marshal(note.ActionableItems)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to encode actionable_items: %w", err)
	}
	actionableItems = string(b)

	b, err = json.Marshal(note.Topics)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to encode topics: %w", err)
	}
	topics = string(b)

	return secondaryTags, entities, actionableItems, topics, nil
}
