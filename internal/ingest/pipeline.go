package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"geoguru/internal/contextutil"
	"geoguru/internal/storage"
	"geoguru/internal/vectorindex"
)

// minChunkChars filters out fragments too short to carry meaning, such as
// page numbers or stray headers left behind by text extraction.
const minChunkChars = 20

// Embedder turns a piece of text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PageText is the extracted text of a single document page.
type PageText struct {
	Number int
	Text   string
}

// Pipeline orchestrates document ingestion: chunking extracted page text,
// embedding each chunk, and persisting the results. The vector index is
// optional; when nil, chunks are stored in SQLite only.
type Pipeline struct {
	documents storage.DocumentStore
	chunks    storage.ChunkStore
	embedder  Embedder
	index     vectorindex.Index
	window    int
	overlap   int
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentStore,
	chunks storage.ChunkStore,
	embedder Embedder,
	index vectorindex.Index,
	window, overlap int,
) *Pipeline {
	return &Pipeline{
		documents: documents,
		chunks:    chunks,
		embedder:  embedder,
		index:     index,
		window:    window,
		overlap:   overlap,
	}
}

// Process ingests the extracted pages of a document. The document must be in
// the pending state. On any failure after processing begins, the document is
// marked error with the failure message; on success it is marked ready.
//
// Individual chunk embedding failures are logged and skipped rather than
// failing the document, so chunk indices may have gaps. Storage failures do
// fail the document.
func (p *Pipeline) Process(ctx context.Context, documentID string, pages []PageText) (err error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := p.documents.MarkProcessing(ctx, documentID); err != nil {
		return fmt.Errorf("failed to mark document processing: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		// The error transition must land even if the request context was
		// cancelled mid-ingestion.
		markCtx := context.WithoutCancel(ctx)
		if markErr := p.documents.MarkError(markCtx, documentID, err.Error()); markErr != nil {
			logger.ErrorContext(markCtx, "failed to mark document error",
				"document_id", documentID, "error", markErr)
		}
	}()

	chunkIndex := 0
	stored := 0
	skipped := 0
	var points []vectorindex.Point

	for _, page := range pages {
		for _, content := range SplitWords(page.Text, p.window, p.overlap) {
			if len(strings.TrimSpace(content)) < minChunkChars {
				continue
			}

			// The index is assigned before embedding so ordering stays
			// deterministic even when embedding failures leave gaps.
			index := chunkIndex
			chunkIndex++

			embedding, embedErr := p.embedder.Embed(ctx, content)
			if embedErr != nil {
				skipped++
				logger.WarnContext(ctx, "skipping chunk, embedding failed",
					"document_id", documentID, "chunk_index", index, "page", page.Number, "error", embedErr)
				continue
			}

			chunk := &storage.ChunkRecord{
				ID:         uuid.New().String(),
				DocumentID: documentID,
				ChunkIndex: index,
				Page:       page.Number,
				Content:    content,
				TokenCount: len(strings.Fields(content)),
				Embedding:  embedding,
			}
			if err = p.chunks.Insert(ctx, chunk); err != nil {
				return fmt.Errorf("failed to insert chunk %d: %w", index, err)
			}
			stored++

			points = append(points, vectorindex.Point{
				ID:         chunk.ID,
				Vector:     embedding,
				DocumentID: documentID,
				Page:       page.Number,
				ChunkIndex: index,
			})
		}
	}

	// Index failures are non-fatal: retrieval falls back to brute-force
	// scoring over the SQLite rows.
	if p.index != nil && len(points) > 0 {
		if upsertErr := p.index.Upsert(ctx, points); upsertErr != nil {
			logger.WarnContext(ctx, "failed to upsert chunks to vector index",
				"document_id", documentID, "count", len(points), "error", upsertErr)
		}
	}

	if err = p.documents.MarkReady(ctx, documentID, len(pages)); err != nil {
		return fmt.Errorf("failed to mark document ready: %w", err)
	}

	logger.InfoContext(ctx, "document ingested",
		"document_id", documentID, "pages", len(pages), "chunks", stored, "skipped", skipped)
	return nil
}
