package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragnote/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragnote/internal/core/domain"
)

func TestEmbedder_EmbedBatch_AlignedAndBatched(t *testing.T) {
	settings := newStaticSettings()
	settings.settings.Embedding.BatchSize = 2
	factory := newMockFactory()
	embedder := NewEmbedder(settings, factory, nil)

	texts := []string{"a", "b", "c", "aa", "bc"}
	vectors, err := embedder.EmbedBatch(context.Background(), texts)

	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, letterVector(text), vectors[i], "vector %d must embed text %d", i, i)
	}

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "aa"}, {"bc"}}, factory.embedder.calls)
}

func TestEmbedder_EmbedBatch_Empty(t *testing.T) {
	factory := newMockFactory()
	embedder := NewEmbedder(newStaticSettings(), factory, nil)

	vectors, err := embedder.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, factory.embedder.callCount())
}

func TestEmbedder_EmbedBatch_ProviderFailure(t *testing.T) {
	cause := errors.New("connection refused")
	factory := newMockFactory()
	calls := 0
	factory.embedder.embedFn = func(texts []string) ([][]float32, error) {
		calls++
		if calls == 2 {
			return nil, cause
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0, 0}
		}
		return out, nil
	}
	embedder := NewEmbedder(newStaticSettings(), factory, nil)

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"a", "b", "c", "d"})

	assert.Nil(t, vectors, "no partial results")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 2, calls, "no retry after failure")
}

func TestEmbedder_EmbedBatch_FactoryFailure(t *testing.T) {
	factory := newMockFactory()
	factory.embedErr = errors.New("bad url")
	embedder := NewEmbedder(newStaticSettings(), factory, nil)

	_, err := embedder.EmbedBatch(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedder_EmbedBatch_WrongVectorCount(t *testing.T) {
	factory := newMockFactory()
	factory.embedder.embedFn = func(_ []string) ([][]float32, error) {
		return [][]float32{{1, 2, 3}}, nil
	}
	embedder := NewEmbedder(newStaticSettings(), factory, nil)

	_, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedder_EmbedBatch_InconsistentDimensions(t *testing.T) {
	factory := newMockFactory()
	factory.embedder.embedFn = func(texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = make([]float32, 3+i)
			out[i][0] = 1
		}
		return out, nil
	}
	embedder := NewEmbedder(newStaticSettings(), factory, nil)

	_, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbedder_EmbedBatch_NonFiniteComponents(t *testing.T) {
	tests := []struct {
		name  string
		value float32
	}{
		{"NaN", float32(math.NaN())},
		{"positive infinity", float32(math.Inf(1))},
		{"negative infinity", float32(math.Inf(-1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := newMockFactory()
			factory.embedder.embedFn = func(texts []string) ([][]float32, error) {
				out := make([][]float32, len(texts))
				for i := range texts {
					out[i] = []float32{1, 2, 3}
				}
				out[len(out)-1][1] = tt.value
				return out, nil
			}
			embedder := NewEmbedder(newStaticSettings(), factory, nil)

			vectors, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})

			assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
			assert.Nil(t, vectors)
		})
	}
}

func TestEmbedder_EmbedBatch_ConfiguredDimensions(t *testing.T) {
	settings := newStaticSettings()
	settings.settings.Embedding.Dimensions = 768
	embedder := NewEmbedder(settings, newMockFactory(), nil)

	_, err := embedder.EmbedBatch(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbedder_EmbedBatch_StoredDimensions(t *testing.T) {
	store := memory.NewDocumentStore()
	require.NoError(t, store.AddDocumentWithChunks(context.Background(),
		&domain.Document{FileName: "a"},
		[]domain.Chunk{{Text: "x", Embedding: []float32{1, 2}}}))

	embedder := NewEmbedder(newStaticSettings(), newMockFactory(), store)

	_, err := embedder.EmbedBatch(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbedder_EmbedBatch_InvalidSettings(t *testing.T) {
	settings := newStaticSettings()
	settings.settings.Embedding.BatchSize = 0
	factory := newMockFactory()
	embedder := NewEmbedder(settings, factory, nil)

	_, err := embedder.EmbedBatch(context.Background(), []string{"a"})

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Zero(t, factory.embedder.callCount())
}

func TestEmbedder_EmbedBatch_Cancelled(t *testing.T) {
	factory := newMockFactory()
	embedder := NewEmbedder(newStaticSettings(), factory, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := embedder.EmbedBatch(ctx, []string{"a", "b", "c"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, factory.embedder.callCount())
}

func TestEmbedder_EmbedBatch_ReadsSettingsEachCall(t *testing.T) {
	settings := newStaticSettings()
	factory := newMockFactory()
	embedder := NewEmbedder(settings, factory, nil)

	_, err := embedder.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEmbeddingModel, factory.lastEmbed.Model)

	settings.settings.Embedding.Model = "mxbai-embed-large"
	_, err = embedder.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large", factory.lastEmbed.Model)
}
