package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			input_type TEXT NOT NULL,
			source TEXT NOT NULL,
			original_text TEXT,
			transcription TEXT,
			audio_url TEXT,
			audio_duration INTEGER,
			title TEXT,
			summary TEXT,
			primary_tag TEXT,
			secondary_tags TEXT,
			key_entities TEXT,
			actionable_items TEXT,
			topics TEXT,
			sentiment TEXT,
			priority TEXT,
			language TEXT NOT NULL DEFAULT 'en',
			embedding_id TEXT,
			synced_to_gdrive INTEGER NOT NULL DEFAULT 0,
			gdrive_file_id TEXT,
			gdrive_file_url TEXT,
			processing_status TEXT NOT NULL DEFAULT 'pending',
			error_message TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_user_status ON notes(user_id, processing_status);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_primary_tag ON notes(primary_tag);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes(created_at);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
