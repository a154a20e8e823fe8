package driven

import (
	"context"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	ValidateEmbedding(ctx context.Context, config domain.EmbeddingSettings) error

	// ValidateLLM validates a chat configuration by pinging the provider.
	ValidateLLM(ctx context.Context, config domain.LLMSettings) error
}
