package retrieval

import (
	"context"
	"fmt"
	"sort"

	"geoguru/internal/contextutil"
	"geoguru/internal/storage"
	"geoguru/internal/vectorindex"
)

const (
	// semanticWeight scales the cosine similarity in the blended score.
	semanticWeight = 0.6
	// keywordWeight scales the keyword score. It folds a relevance boost
	// into the nominal lexical weight, so a chunk with keyword overlap
	// always outranks one without at equal similarity.
	keywordWeight = 0.55

	defaultTopK = 5

	// Caps on how many chunks are considered per document when the query
	// spans more than one document.
	multiDocBudget = 20
	minPerDocument = 10
)

// Engine ranks stored chunks against a query by blending vector similarity
// with keyword overlap. A vector index is optional; without one, similarity
// is computed locally over the candidate set.
type Engine struct {
	chunks storage.ChunkStore
	index  vectorindex.Index
}

func NewEngine(chunks storage.ChunkStore, index vectorindex.Index) *Engine {
	return &Engine{
		chunks: chunks,
		index:  index,
	}
}

// Retrieve returns the top-K chunks for the query, ranked by blended score.
// Chunks without a stored embedding are skipped. An empty query embedding
// yields an empty result.
func (e *Engine) Retrieve(ctx context.Context, query Query) ([]ScoredChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(query.Embedding) == 0 {
		return []ScoredChunk{}, nil
	}

	candidates, err := e.fetchCandidates(ctx, query.DocumentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate chunks: %w", err)
	}

	terms := ExtractTerms(query.Text)
	semantic := e.semanticScores(ctx, query.Embedding, candidates)

	scored := make([]ScoredChunk, 0, len(candidates))
	for _, chunk := range candidates {
		if len(chunk.Embedding) == 0 {
			continue
		}

		sem := semantic[chunk.ID]
		kw := KeywordScore(chunk.Content, terms)

		hybrid := sem
		if kw > 0 {
			hybrid = semanticWeight*sem + keywordWeight*kw
		}

		scored = append(scored, ScoredChunk{
			Chunk:    chunk,
			Semantic: sem,
			Keyword:  kw,
			Hybrid:   hybrid,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Hybrid > scored[j].Hybrid
	})

	topK := query.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	if len(scored) > topK {
		scored = scored[:topK]
	}

	logger.DebugContext(ctx, "retrieval complete",
		"candidates", len(candidates), "returned", len(scored), "terms", len(terms))

	return scored, nil
}

// fetchCandidates loads candidate chunks in a deterministic order: documents
// in scope order, chunks by index within each document. With more than one
// document in scope, each document contributes at most its share of the
// overall budget.
func (e *Engine) fetchCandidates(ctx context.Context, documentIDs []string) ([]storage.ChunkRecord, error) {
	if len(documentIDs) == 0 {
		return e.chunks.FetchAll(ctx)
	}

	limit := 0
	if len(documentIDs) > 1 {
		limit = multiDocBudget / len(documentIDs)
		if limit < minPerDocument {
			limit = minPerDocument
		}
	}

	var candidates []storage.ChunkRecord
	for _, documentID := range documentIDs {
		chunks, err := e.chunks.FetchByDocument(ctx, documentID, limit)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, chunks...)
	}
	return candidates, nil
}

// semanticScores computes cosine similarity for each candidate, delegating to
// the vector index when one is configured and falling back to a local
// computation for any chunk the index did not score.
func (e *Engine) semanticScores(ctx context.Context, embedding []float32, candidates []storage.ChunkRecord) map[string]float64 {
	logger := contextutil.LoggerFromContext(ctx)

	scores := make(map[string]float64, len(candidates))

	if e.index != nil {
		ids := make([]string, 0, len(candidates))
		for _, chunk := range candidates {
			if len(chunk.Embedding) == 0 {
				continue
			}
			ids = append(ids, chunk.ID)
		}

		indexed, err := e.index.ScoreCandidates(ctx, embedding, ids)
		if err != nil {
			logger.WarnContext(ctx, "vector index query failed, scoring locally", "error", err)
		} else {
			for id, score := range indexed {
				scores[id] = score
			}
		}
	}

	for _, chunk := range candidates {
		if len(chunk.Embedding) == 0 {
			continue
		}
		if _, ok := scores[chunk.ID]; ok {
			continue
		}
		scores[chunk.ID] = Cosine(embedding, chunk.Embedding)
	}

	return scores
}
