package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// SettingsReader supplies the current settings. Implementations re-read
// their configuration on every call.
type SettingsReader interface {
	Get() (*domain.AppSettings, error)
}

// Embedder turns texts into vectors using the configured provider.
// Output is positionally aligned with input: vector i embeds text i.
type Embedder struct {
	settings SettingsReader
	factory  driven.AIServiceFactory
	store    driven.DocumentStore // optional, supplies the stored dimensionality
}

// NewEmbedder creates an embedder. store may be nil.
func NewEmbedder(settings SettingsReader, factory driven.AIServiceFactory, store driven.DocumentStore) *Embedder {
	return &Embedder{
		settings: settings,
		factory:  factory,
		store:    store,
	}
}

// EmbedBatch embeds texts with the current embedding settings.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	settings, err := e.settings.Get()
	if err != nil {
		return nil, err
	}
	return e.embed(ctx, settings.Embedding, texts)
}

// embed sends texts to the provider in sub-batches of cfg.BatchSize, one
// request at a time. Any provider failure fails the whole call; there are no
// partial results and no retries.
func (e *Embedder) embed(ctx context.Context, cfg domain.EmbeddingSettings, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	svc, err := e.factory.EmbeddingService(cfg)
	if err != nil {
		return nil, embeddingUnavailable(err)
	}

	expected := cfg.Dimensions
	if expected == 0 && e.store != nil {
		if expected, err = e.store.Dimensions(ctx); err != nil {
			return nil, fmt.Errorf("read stored dimensions: %w", err)
		}
	}

	logger.Debug("Embedding %d texts with %s (batch size %d)", len(texts), svc.ModelName(), cfg.BatchSize)

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+cfg.BatchSize, len(texts))
		batch, err := svc.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, embeddingUnavailable(err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: provider returned %d vectors for %d texts",
				domain.ErrEmbeddingUnavailable, len(batch), end-start)
		}

		for i, vec := range batch {
			if len(vec) == 0 {
				return nil, fmt.Errorf("%w: provider returned an empty vector for text %d",
					domain.ErrEmbeddingUnavailable, start+i)
			}
			if expected == 0 {
				expected = len(vec)
			}
			if len(vec) != expected {
				return nil, fmt.Errorf("%w: model %s returned %d dimensions, expected %d",
					domain.ErrDimensionMismatch, svc.ModelName(), len(vec), expected)
			}
			for j, x := range vec {
				if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
					return nil, fmt.Errorf("%w: provider returned a non-finite value at index %d for text %d",
						domain.ErrEmbeddingUnavailable, j, start+i)
				}
			}
		}

		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// embeddingUnavailable wraps err so errors.Is matches domain.ErrEmbeddingUnavailable.
func embeddingUnavailable(err error) error {
	if errors.Is(err, domain.ErrEmbeddingUnavailable) || errors.Is(err, domain.ErrInvalidConfig) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}
