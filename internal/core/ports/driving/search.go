package driving

import (
	"context"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// SearchService retrieves the chunks most similar to a query.
type SearchService interface {
	// Search embeds the query and returns ranked chunks, best first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievedChunk, error)
}
