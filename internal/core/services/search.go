package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService embeds a query and retrieves the most similar chunks.
type SearchService struct {
	settings  SettingsReader
	embedder  *Embedder
	retriever *Retriever
	docStore  driven.DocumentStore
}

// NewSearchService creates a new search service.
func NewSearchService(
	settings SettingsReader,
	embedder *Embedder,
	retriever *Retriever,
	docStore driven.DocumentStore,
) *SearchService {
	return &SearchService{
		settings:  settings,
		embedder:  embedder,
		retriever: retriever,
		docStore:  docStore,
	}
}

// Search retrieves chunks for query. Zero-valued options fall back to the
// configured retrieval settings. An empty query returns no results.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.RetrievedChunk{}, nil
	}

	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	results, err := s.search(ctx, settings, query, opts)
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.Info("Search returned %d results", len(results))
	return results, nil
}

// search runs one retrieval with already-loaded settings.
func (s *SearchService) search(
	ctx context.Context, settings *domain.AppSettings, query string, opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	topK, minSimilarity := resolveSearchOptions(opts, settings.Retrieval)

	// Reject bad parameters before paying for an embedding call.
	if err := domain.ValidateRetrieval(topK, minSimilarity); err != nil {
		return nil, err
	}

	vectors, err := s.embedder.embed(ctx, settings.Embedding, []string{query})
	if err != nil {
		return nil, err
	}

	results, err := s.retriever.Retrieve(ctx, vectors[0], topK, minSimilarity)
	if err != nil {
		return nil, err
	}

	s.attachFileNames(ctx, results)
	return results, nil
}

// attachFileNames fills in each result's document file name.
// A document deleted since retrieval leaves the name empty.
func (s *SearchService) attachFileNames(ctx context.Context, results []domain.RetrievedChunk) {
	names := make(map[string]string)

	for i := range results {
		docID := results[i].Chunk.DocumentID
		name, ok := names[docID]
		if !ok {
			doc, err := s.docStore.GetDocument(ctx, docID)
			switch {
			case err == nil:
				name = doc.FileName
			case !errors.Is(err, domain.ErrNotFound):
				logger.Debug("Failed to load document %s: %v", docID, err)
			}
			names[docID] = name
		}
		results[i].FileName = name
	}
}

func resolveSearchOptions(opts domain.SearchOptions, cfg domain.RetrievalSettings) (int, float64) {
	topK := opts.TopK
	if topK == 0 {
		topK = cfg.TopK
	}

	minSimilarity := cfg.MinSimilarity
	if opts.MinSimilarity != nil {
		minSimilarity = *opts.MinSimilarity
	}

	return topK, minSimilarity
}
