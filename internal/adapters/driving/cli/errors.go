package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

var errInterrupted = errors.New("interrupted")

// errNotConfigured reports a command run without its service.
func errNotConfigured(name string) error {
	return fmt.Errorf("%s service not configured", name)
}

// Hint returns a suggestion for resolving err, or "".
func Hint(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return "Is the embedding provider running? Check with 'ragnote doctor'."
	case errors.Is(err, domain.ErrLLMUnavailable):
		return "Is the chat provider running? Check with 'ragnote doctor'."
	case errors.Is(err, domain.ErrInvalidConfig):
		return "Review settings with 'ragnote settings show'."
	case errors.Is(err, domain.ErrDimensionMismatch):
		return "The embedding model changed. Delete and re-ingest documents, or switch the model back."
	case errors.Is(err, domain.ErrUnsupportedFileType) && ingestionService != nil:
		return "Supported types: " + strings.Join(ingestionService.SupportedExtensions(), " ")
	default:
		return ""
	}
}
