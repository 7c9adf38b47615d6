package storage

import (
	"context"
	"errors"
	"testing"
)

func TestUserRepo_GetByUsername(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepo(db)
	id := insertTestUser(t, db, "hannah")

	user, err := repo.GetByUsername(context.Background(), "hannah")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if user.ID != id {
		t.Errorf("user ID = %d, want %d", user.ID, id)
	}
	if user.Password != "secret" {
		t.Errorf("password = %q, want secret", user.Password)
	}
	if user.DisplayName != "Test User" {
		t.Errorf("display name = %q, want Test User", user.DisplayName)
	}
}

func TestUserRepo_GetByUsername_NotFound(t *testing.T) {
	repo := NewUserRepo(testDB(t))

	if _, err := repo.GetByUsername(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrNotFound", err)
	}
}

func TestUserRepo_GetByID(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepo(db)
	id := insertTestUser(t, db, "hannah")

	user, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if user.Username != "hannah" {
		t.Errorf("username = %q, want hannah", user.Username)
	}

	if _, err := repo.GetByID(context.Background(), id+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}
