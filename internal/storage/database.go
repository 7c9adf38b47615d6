package storage

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

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

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

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
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			display_name TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS ai_settings (
			user_id INTEGER PRIMARY KEY,
			default_provider TEXT NOT NULL DEFAULT 'claude',
			claude_api_key TEXT,
			gemini_api_key TEXT,
			openai_api_key TEXT,
			claude_model TEXT,
			gemini_model TEXT,
			openai_model TEXT,
			tts_api_key TEXT,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS topics (
			id TEXT PRIMARY KEY,
			theme_number INTEGER NOT NULL,
			theme_name TEXT NOT NULL,
			topic_number INTEGER NOT NULL,
			topic_name TEXT NOT NULL,
			textbook_pages TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS definitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic_id TEXT NOT NULL,
			term TEXT NOT NULL,
			definition TEXT NOT NULL,
			FOREIGN KEY (topic_id) REFERENCES topics(id)
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			topic_id TEXT NOT NULL,
			question_text TEXT NOT NULL,
			command_word TEXT,
			marks INTEGER NOT NULL DEFAULT 2,
			mark_scheme TEXT,
			ai_generated INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (topic_id) REFERENCES topics(id)
		);`,
		`CREATE TABLE IF NOT EXISTS test_yourself (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic_id TEXT NOT NULL,
			question_number INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			FOREIGN KEY (topic_id) REFERENCES topics(id)
		);`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			object_key TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			page_count INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			page_number INTEGER NOT NULL,
			content TEXT NOT NULL,
			token_count INTEGER NOT NULL,
			embedding BLOB,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id, chunk_index);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
