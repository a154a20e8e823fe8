package driven

import "github.com/custodia-labs/ragnote/internal/core/domain"

// AIServiceFactory builds provider clients for the settings in effect.
// Services ask for a client per operation so that settings changes apply
// without a restart. Implementations may reuse clients for equal settings.
type AIServiceFactory interface {
	// EmbeddingService returns a client for the embedding settings.
	EmbeddingService(settings domain.EmbeddingSettings) (EmbeddingService, error)

	// LLMService returns a client for the chat settings.
	LLMService(settings domain.LLMSettings) (LLMService, error)
}
