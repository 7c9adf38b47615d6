package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// UserStore defines the interface for user lookups.
type UserStore interface {
	// GetByUsername gets a user by username. Returns ErrNotFound if not found.
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByID gets a user by ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*User, error)
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

// GetByUsername gets a user by username. Returns ErrNotFound if not found.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	var display sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, password, display_name FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &display)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.DisplayName = display.String

	return &u, nil
}

// GetByID gets a user by ID. Returns ErrNotFound if not found.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	var display sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, password, display_name FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &u.Username, &u.Password, &display)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.DisplayName = display.String

	return &u, nil
}
