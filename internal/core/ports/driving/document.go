package driving

import (
	"context"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns all documents ordered by upload time.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Chunks returns a document's chunks in document order.
	Chunks(ctx context.Context, id string) ([]domain.Chunk, error)

	// Delete removes a document and its chunks. Idempotent.
	Delete(ctx context.Context, id string) error

	// Stats summarises the corpus.
	Stats(ctx context.Context) (domain.CorpusStats, error)
}
