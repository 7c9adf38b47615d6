package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks geoguru/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations. It is the
// persistence collaborator retrieval and ingestion are written against; the
// callers never assume a particular query language, only filtering by
// document id with rows returned in chunk_index order.
type ChunkStore interface {
	// Insert inserts a single chunk. chunk.ID must be set before calling.
	Insert(ctx context.Context, chunk *ChunkRecord) error
	// FetchByDocument returns a document's chunks ordered by chunk_index.
	// A limit of 0 means no limit.
	FetchByDocument(ctx context.Context, documentID string, limit int) ([]ChunkRecord, error)
	// FetchAll returns every chunk, ordered by document then chunk_index.
	FetchAll(ctx context.Context) ([]ChunkRecord, error)
	// ListIDsByDocument returns all chunk IDs for a document, ordered by chunk_index.
	ListIDsByDocument(ctx context.Context, documentID string) ([]string, error)
	// DeleteByDocument removes all chunks belonging to a document.
	DeleteByDocument(ctx context.Context, documentID string) error
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert inserts a single chunk. chunk.ID must be set before calling.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *ChunkRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chunks (id, document_id, chunk_index, page_number, content, token_count, embedding) VALUES (?, ?, ?, ?, ?, ?, ?)",
		chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Page, chunk.Content, chunk.TokenCount, EncodeVector(chunk.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// FetchByDocument returns a document's chunks ordered by chunk_index.
func (r *ChunkRepo) FetchByDocument(ctx context.Context, documentID string, limit int) ([]ChunkRecord, error) {
	query := "SELECT id, document_id, chunk_index, page_number, content, token_count, embedding FROM chunks WHERE document_id = ? ORDER BY chunk_index"
	args := []any{documentID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanChunks(rows)
}

// FetchAll returns every chunk, ordered by document then chunk_index.
func (r *ChunkRepo) FetchAll(ctx context.Context) ([]ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, document_id, chunk_index, page_number, content, token_count, embedding FROM chunks ORDER BY document_id, chunk_index",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanChunks(rows)
}

// ListIDsByDocument returns all chunk IDs for a document, ordered by chunk_index.
// Returns an empty slice if no chunks exist (not an error). Used to collect
// vector index point IDs before deleting a document.
func (r *ChunkRepo) ListIDsByDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE document_id = ? ORDER BY chunk_index",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// DeleteByDocument removes all chunks belonging to a document.
func (r *ChunkRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks by document: %w", err)
	}
	return nil
}

func scanChunks(rows *sql.Rows) ([]ChunkRecord, error) {
	var chunks []ChunkRecord
	for rows.Next() {
		var chunk ChunkRecord
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Page, &chunk.Content, &chunk.TokenCount, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
		}
		chunk.Embedding = vec
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}
