package vectorindex

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks geoguru/internal/vectorindex Index

import "context"

// Point represents a chunk embedding with its retrieval metadata.
type Point struct {
	ID         string
	Vector     []float32
	DocumentID string
	Page       int
	ChunkIndex int
}

// Index is the optional vector-index collaborator. Retrieval works without
// one: when the index is absent or errors, the engine scores candidates by
// brute force with identical math, so both modes rank identically.
type Index interface {
	// EnsureCollection creates the collection if missing and validates the
	// vector size when it already exists.
	EnsureCollection(ctx context.Context, vectorSize int) error

	// Upsert inserts or updates points.
	Upsert(ctx context.Context, points []Point) error

	// ScoreCandidates returns the cosine similarity of the query vector
	// against each of the given point IDs. IDs unknown to the index are
	// simply absent from the result.
	ScoreCandidates(ctx context.Context, query []float32, ids []string) (map[string]float64, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, ids []string) error
}
