package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.False(t, AIProvider("anthropic").IsValid())
	assert.False(t, AIProvider("").IsValid())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	require.NoError(t, s.Validate())
	assert.Equal(t, AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", s.Embedding.Model)
	assert.Equal(t, 10, s.Embedding.BatchSize)
	assert.Equal(t, "qwen2.5:3b", s.LLM.Model)
	assert.Equal(t, "http://localhost:11434", s.LLM.BaseURL)
	assert.Equal(t, 500, s.Chunking.Size)
	assert.Equal(t, 50, s.Chunking.Overlap)
	assert.Equal(t, 5, s.Retrieval.TopK)
	assert.InDelta(t, 0.5, s.Retrieval.MinSimilarity, 1e-9)
	assert.True(t, s.Retrieval.UseRAG)
	assert.Equal(t, 2000, s.Retrieval.MaxContextChars)
	assert.True(t, s.LLM.Stream)
	assert.Equal(t, DefaultSystemPrompt, s.LLM.SystemPrompt)
}

func TestChunkingSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 10, 3, false},
		{"zero overlap", 10, 0, false},
		{"overlap one less than size", 10, 9, false},
		{"zero size", 0, 0, true},
		{"negative size", -5, 0, true},
		{"negative overlap", 10, -1, true},
		{"overlap equals size", 10, 10, true},
		{"overlap exceeds size", 10, 11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ChunkingSettings{Size: tt.size, Overlap: tt.overlap}.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRetrieval(t *testing.T) {
	tests := []struct {
		name    string
		topK    int
		minSim  float64
		wantErr bool
	}{
		{"valid", 5, 0.5, false},
		{"lower bound", 1, -1, false},
		{"upper bound", 1, 1, false},
		{"zero top k", 0, 0.5, true},
		{"negative top k", -1, 0.5, true},
		{"threshold below range", 5, -1.01, true},
		{"threshold above range", 5, 1.01, true},
		{"nan threshold", 5, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRetrieval(tt.topK, tt.minSim)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmbeddingSettings_Validate(t *testing.T) {
	valid := DefaultAppSettings().Embedding
	require.NoError(t, valid.Validate())

	bad := valid
	bad.BatchSize = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = valid
	bad.Provider = "unknown"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = valid
	bad.Model = ""
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama, Model: "m"}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI, Model: "m"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, Model: "m", APIKey: "k"}.IsConfigured())
	assert.False(t, EmbeddingSettings{}.IsConfigured())
}

func TestAppSettings_Validate_Workers(t *testing.T) {
	s := DefaultAppSettings()
	s.Ingest.Workers = 0

	assert.ErrorIs(t, s.Validate(), ErrInvalidConfig)
}
