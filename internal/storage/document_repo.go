package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a document status update would
// violate the ingestion state machine (pending → processing → ready|error,
// with ready and error terminal).
var ErrInvalidTransition = errors.New("invalid document status transition")

// DocumentStore defines the interface for document lifecycle operations.
type DocumentStore interface {
	// Create inserts a new document in the pending state.
	Create(ctx context.Context, doc *DocumentRecord) error
	// GetByID gets a document by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*DocumentRecord, error)
	// List returns all documents, newest first.
	List(ctx context.Context) ([]DocumentRecord, error)
	// MarkProcessing transitions a pending document to processing.
	MarkProcessing(ctx context.Context, id string) error
	// MarkReady transitions a processing document to ready, recording the page count.
	MarkReady(ctx context.Context, id string, pageCount int) error
	// MarkError transitions a processing document to error, recording the message.
	MarkError(ctx context.Context, id string, message string) error
	// Delete removes a document row. Chunks cascade via the schema.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Create inserts a new document in the pending state. Any status set on the
// record is ignored; documents always start pending.
func (r *DocumentRepo) Create(ctx context.Context, doc *DocumentRecord) error {
	doc.Status = StatusPending
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO documents (id, filename, object_key, size_bytes, page_count, status) VALUES (?, ?, ?, ?, 0, ?)",
		doc.ID, doc.Filename, doc.ObjectKey, doc.SizeBytes, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByID gets a document by its ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*DocumentRecord, error) {
	var doc DocumentRecord
	var errMsg sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, filename, object_key, size_bytes, page_count, status, error, created_at FROM documents WHERE id = ?",
		id,
	).Scan(&doc.ID, &doc.Filename, &doc.ObjectKey, &doc.SizeBytes, &doc.PageCount, &doc.Status, &errMsg, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	doc.Error = errMsg.String

	return &doc, nil
}

// List returns all documents, newest first.
func (r *DocumentRepo) List(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, filename, object_key, size_bytes, page_count, status, error, created_at FROM documents ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		var errMsg sql.NullString
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.ObjectKey, &doc.SizeBytes, &doc.PageCount, &doc.Status, &errMsg, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Error = errMsg.String
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// MarkProcessing transitions a pending document to processing.
func (r *DocumentRepo) MarkProcessing(ctx context.Context, id string) error {
	return r.transition(ctx, id,
		"UPDATE documents SET status = ? WHERE id = ? AND status = ?",
		StatusProcessing, id, StatusPending)
}

// MarkReady transitions a processing document to ready, recording the page count.
func (r *DocumentRepo) MarkReady(ctx context.Context, id string, pageCount int) error {
	return r.transition(ctx, id,
		"UPDATE documents SET status = ?, page_count = ? WHERE id = ? AND status = ?",
		StatusReady, pageCount, id, StatusProcessing)
}

// MarkError transitions a processing document to error, recording the message.
func (r *DocumentRepo) MarkError(ctx context.Context, id string, message string) error {
	return r.transition(ctx, id,
		"UPDATE documents SET status = ?, error = ? WHERE id = ? AND status = ?",
		StatusError, message, id, StatusProcessing)
}

// transition runs a guarded status update. The WHERE clause carries the
// required current status, so a zero row count means either a missing row
// or a transition the state machine forbids.
func (r *DocumentRepo) transition(ctx context.Context, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInvalidTransition
	}

	return nil
}

// Delete removes a document row. Chunks cascade via the schema.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
