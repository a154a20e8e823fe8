package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// Retriever ranks stored chunks against a query vector by cosine similarity.
// It scans every stored vector; there is no approximate index.
type Retriever struct {
	store driven.DocumentStore
}

// NewRetriever creates a retriever over store.
func NewRetriever(store driven.DocumentStore) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns up to topK chunks scoring at least minSimilarity, best
// first. Equal scores keep insertion order.
func (r *Retriever) Retrieve(
	ctx context.Context, query []float32, topK int, minSimilarity float64,
) ([]domain.RetrievedChunk, error) {
	if err := domain.ValidateRetrieval(topK, minSimilarity); err != nil {
		return nil, err
	}

	chunks, err := r.store.AllChunkVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	if len(chunks) == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	if dims := len(chunks[0].Embedding); len(query) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d",
			domain.ErrDimensionMismatch, len(query), dims)
	}

	results := make([]domain.RetrievedChunk, 0, min(topK, len(chunks)))
	for _, c := range chunks {
		score := domain.CosineSimilarity(query, c.Embedding)
		// NaN compares false both ways and must not pass the floor.
		if !(score >= minSimilarity) {
			continue
		}
		results = append(results, domain.RetrievedChunk{Chunk: c, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	logger.Debug("Retrieved %d of %d chunks (top_k=%d, min_similarity=%.3f)",
		len(results), len(chunks), topK, minSimilarity)

	return results, nil
}
