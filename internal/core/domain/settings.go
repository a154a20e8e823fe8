package domain

import (
	"fmt"
	"math"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or chat.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or any compatible server.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI compatible (cloud or self-hosted)"
	default:
		return unknownDescription
	}
}

// Default configuration values.
const (
	DefaultBaseURL         = "http://localhost:11434"
	DefaultEmbeddingModel  = "nomic-embed-text"
	DefaultChatModel       = "qwen2.5:3b"
	DefaultBatchSize       = 10
	DefaultChunkSize       = 500
	DefaultChunkOverlap    = 50
	DefaultTopK            = 5
	DefaultMinSimilarity   = 0.5
	DefaultMaxContextChars = 2000
	DefaultIngestWorkers   = 1
	DefaultHistoryLimit    = 10
)

// DefaultSystemPrompt guides the chat model when no prompt is configured.
const DefaultSystemPrompt = "You are a helpful assistant that answers questions based on the provided context. " +
	"Use the context information to give accurate and helpful answers. " +
	"If the context doesn't contain relevant information, say so clearly. " +
	"Be concise but thorough in your responses."

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the maximum number of texts sent in one provider request.
	BatchSize int

	// Dimensions is the expected vector length. Zero accepts whatever the
	// model returns as long as it matches the vectors already stored.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Model == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// Validate checks the embedding settings.
func (e EmbeddingSettings) Validate() error {
	if !e.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, e.Provider)
	}
	if e.Model == "" {
		return fmt.Errorf("%w: embedding model is required", ErrInvalidConfig)
	}
	if e.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding batch size must be positive, got %d", ErrInvalidConfig, e.BatchSize)
	}
	if e.Dimensions < 0 {
		return fmt.Errorf("%w: embedding dimensions must not be negative, got %d", ErrInvalidConfig, e.Dimensions)
	}
	return nil
}

// LLMSettings holds chat provider configuration.
type LLMSettings struct {
	// Provider is the chat service provider.
	Provider AIProvider

	// Model is the chat model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// SystemPrompt guides the model's answers.
	SystemPrompt string

	// Stream requests incremental delivery of the answer.
	Stream bool
}

// IsConfigured returns true if the chat provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Model == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// Validate checks the chat settings.
func (l LLMSettings) Validate() error {
	if !l.Provider.IsValid() {
		return fmt.Errorf("%w: unknown chat provider %q", ErrInvalidConfig, l.Provider)
	}
	if l.Model == "" {
		return fmt.Errorf("%w: chat model is required", ErrInvalidConfig)
	}
	return nil
}

// ChunkingSettings controls how extracted text is split.
type ChunkingSettings struct {
	// Size is the window length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive windows.
	Overlap int
}

// Validate checks chunk_size > 0 and 0 <= overlap < chunk_size.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", ErrInvalidConfig, c.Size, c.Overlap)
	}
	return nil
}

// RetrievalSettings controls similarity retrieval and context building.
type RetrievalSettings struct {
	// TopK is the maximum number of chunks returned.
	TopK int

	// MinSimilarity is the lowest cosine score a chunk may have.
	MinSimilarity float64

	// UseRAG enables retrieval when answering questions.
	UseRAG bool

	// MaxContextChars bounds the context handed to the chat model.
	MaxContextChars int
}

// Validate checks top_k > 0 and min_similarity in [-1, 1].
func (r RetrievalSettings) Validate() error {
	if err := ValidateRetrieval(r.TopK, r.MinSimilarity); err != nil {
		return err
	}
	if r.MaxContextChars <= 0 {
		return fmt.Errorf("%w: max context chars must be positive, got %d", ErrInvalidConfig, r.MaxContextChars)
	}
	return nil
}

// ValidateRetrieval checks the parameters of a single retrieval.
func ValidateRetrieval(topK int, minSimilarity float64) error {
	if topK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, topK)
	}
	if math.IsNaN(minSimilarity) || minSimilarity < -1 || minSimilarity > 1 {
		return fmt.Errorf("%w: min similarity must be in [-1, 1], got %v", ErrInvalidConfig, minSimilarity)
	}
	return nil
}

// IngestSettings controls batch ingestion.
type IngestSettings struct {
	// Workers is the number of files processed concurrently.
	Workers int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Ingest    IngestSettings
}

// Validate checks every settings group.
func (s AppSettings) Validate() error {
	if err := s.Embedding.Validate(); err != nil {
		return err
	}
	if err := s.LLM.Validate(); err != nil {
		return err
	}
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if err := s.Retrieval.Validate(); err != nil {
		return err
	}
	if s.Ingest.Workers <= 0 {
		return fmt.Errorf("%w: ingest workers must be positive, got %d", ErrInvalidConfig, s.Ingest.Workers)
	}
	return nil
}

// DefaultAppSettings returns settings with sensible defaults.
// Both providers default to a local Ollama instance.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOllama,
			Model:     DefaultEmbeddingModel,
			BaseURL:   DefaultBaseURL,
			BatchSize: DefaultBatchSize,
		},
		LLM: LLMSettings{
			Provider:     AIProviderOllama,
			Model:        DefaultChatModel,
			BaseURL:      DefaultBaseURL,
			SystemPrompt: DefaultSystemPrompt,
			Stream:       true,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:            DefaultTopK,
			MinSimilarity:   DefaultMinSimilarity,
			UseRAG:          true,
			MaxContextChars: DefaultMaxContextChars,
		},
		Ingest: IngestSettings{
			Workers: DefaultIngestWorkers,
		},
	}
}

// AllProviders returns providers that support both embeddings and chat.
func AllProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: DefaultEmbeddingModel,
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each chat provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: DefaultChatModel,
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
