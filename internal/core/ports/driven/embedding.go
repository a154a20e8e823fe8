// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text via an external provider.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI and compatible servers (text-embedding-3-small)
type EmbeddingService interface {
	// EmbedBatch generates one embedding per text in a single provider request.
	// result[i] is the embedding of texts[i]. Errors wrap domain.ErrEmbeddingUnavailable.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
