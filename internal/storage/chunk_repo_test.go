package storage

import (
	"context"
	"fmt"
	"reflect"
	"testing"
)

func insertChunks(t *testing.T, repo *ChunkRepo, documentID string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		err := repo.Insert(context.Background(), &ChunkRecord{
			ID:         fmt.Sprintf("%s-chunk-%d", documentID, i),
			DocumentID: documentID,
			ChunkIndex: i,
			Page:       i + 1,
			Content:    fmt.Sprintf("chunk %d content", i),
			TokenCount: 3,
			Embedding:  []float32{float32(i), 1, 2},
		})
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
}

func TestChunkRepo_InsertAndFetch(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	newTestDocument(t, docs, "doc-1")
	insertChunks(t, repo, "doc-1", 3)

	chunks, err := repo.FetchByDocument(context.Background(), "doc-1", 0)
	if err != nil {
		t.Fatalf("FetchByDocument() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("FetchByDocument() returned %d chunks, want 3", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			t.Errorf("chunk %d index = %d, want %d", i, chunk.ChunkIndex, i)
		}
		want := []float32{float32(i), 1, 2}
		if !reflect.DeepEqual(chunk.Embedding, want) {
			t.Errorf("chunk %d embedding = %v, want %v", i, chunk.Embedding, want)
		}
	}
}

func TestChunkRepo_FetchByDocument_Limit(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	newTestDocument(t, docs, "doc-1")
	insertChunks(t, repo, "doc-1", 5)

	chunks, err := repo.FetchByDocument(context.Background(), "doc-1", 2)
	if err != nil {
		t.Fatalf("FetchByDocument() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("FetchByDocument() returned %d chunks, want 2", len(chunks))
	}
	if chunks[0].ChunkIndex != 0 || chunks[1].ChunkIndex != 1 {
		t.Errorf("limited fetch returned indices %d, %d, want 0, 1", chunks[0].ChunkIndex, chunks[1].ChunkIndex)
	}
}

func TestChunkRepo_FetchAll(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	newTestDocument(t, docs, "doc-a")
	newTestDocument(t, docs, "doc-b")
	insertChunks(t, repo, "doc-b", 2)
	insertChunks(t, repo, "doc-a", 2)

	chunks, err := repo.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("FetchAll() returned %d chunks, want 4", len(chunks))
	}
	// Ordered by document, then chunk index.
	wantIDs := []string{"doc-a-chunk-0", "doc-a-chunk-1", "doc-b-chunk-0", "doc-b-chunk-1"}
	for i, chunk := range chunks {
		if chunk.ID != wantIDs[i] {
			t.Errorf("chunk %d = %s, want %s", i, chunk.ID, wantIDs[i])
		}
	}
}

func TestChunkRepo_NilEmbedding(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	newTestDocument(t, docs, "doc-1")

	err := repo.Insert(context.Background(), &ChunkRecord{
		ID:         "chunk-1",
		DocumentID: "doc-1",
		ChunkIndex: 0,
		Page:       1,
		Content:    "no embedding stored",
		TokenCount: 3,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	chunks, err := repo.FetchByDocument(context.Background(), "doc-1", 0)
	if err != nil {
		t.Fatalf("FetchByDocument() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("FetchByDocument() returned %d chunks, want 1", len(chunks))
	}
	if len(chunks[0].Embedding) != 0 {
		t.Errorf("embedding = %v, want empty", chunks[0].Embedding)
	}
}

func TestChunkRepo_ListIDsByDocument(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	newTestDocument(t, docs, "doc-1")
	insertChunks(t, repo, "doc-1", 3)

	ids, err := repo.ListIDsByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	want := []string{"doc-1-chunk-0", "doc-1-chunk-1", "doc-1-chunk-2"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ListIDsByDocument() = %v, want %v", ids, want)
	}

	ids, err = repo.ListIDsByDocument(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ListIDsByDocument() for missing document = %v, want empty", ids)
	}
}

func TestChunkRepo_DeleteByDocument(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	newTestDocument(t, docs, "doc-1")
	newTestDocument(t, docs, "doc-2")
	insertChunks(t, repo, "doc-1", 2)
	insertChunks(t, repo, "doc-2", 2)

	if err := repo.DeleteByDocument(context.Background(), "doc-1"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}

	remaining, err := repo.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("FetchAll() returned %d chunks after delete, want 2", len(remaining))
	}
	for _, chunk := range remaining {
		if chunk.DocumentID != "doc-2" {
			t.Errorf("surviving chunk belongs to %s, want doc-2", chunk.DocumentID)
		}
	}
}

func TestChunkRepo_CascadeOnDocumentDelete(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	newTestDocument(t, docs, "doc-1")
	insertChunks(t, repo, "doc-1", 2)

	if err := docs.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 0 {
		t.Errorf("chunks remaining after document delete = %d, want 0", count)
	}
}
