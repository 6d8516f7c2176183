package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UserStore defines the interface for user storage operations.
type UserStore interface {
	// GetOrCreate returns the user with the given ID, creating it if absent.
	GetOrCreate(ctx context.Context, id string) (*UserRecord, error)
}

// UserRepo provides methods for user operations.
// It implements the UserStore interface.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetOrCreate returns the user with the given ID, creating it if absent.
func (r *UserRepo) GetOrCreate(ctx context.Context, id string) (*UserRecord, error) {
	var user UserRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, created_at FROM users WHERE id = ?", id,
	).Scan(&user.ID, &user.CreatedAt)
	if err == nil {
		return &user, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user = UserRecord{ID: id, CreatedAt: time.Now().UTC()}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO users (id, created_at) VALUES (?, ?) ON CONFLICT (id) DO NOTHING",
		user.ID, user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}
