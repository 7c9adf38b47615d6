package retrieval

import "geoguru/internal/storage"

// Query describes a single retrieval request.
type Query struct {
	// Text is the user's question, used for keyword scoring.
	Text string
	// Embedding is the query vector. When empty, retrieval returns no results.
	Embedding []float32
	// DocumentIDs restricts retrieval to the given documents. Empty means all.
	DocumentIDs []string
	// TopK is the maximum number of results. Zero means the default.
	TopK int
}

// ScoredChunk is a candidate chunk with its component and blended scores.
type ScoredChunk struct {
	Chunk    storage.ChunkRecord
	Semantic float64
	Keyword  float64
	Hybrid   float64
}
