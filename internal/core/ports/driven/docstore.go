package driven

import (
	"context"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// DocumentStore persists documents and their chunks.
// Every write is atomic: on error nothing from the call is visible.
type DocumentStore interface {
	// AddDocument stores a document with no chunks.
	AddDocument(ctx context.Context, doc *domain.Document) error

	// AddChunks stores chunks for an existing document and returns their IDs.
	// Returns domain.ErrUnknownDocument if the document does not exist.
	AddChunks(ctx context.Context, documentID string, chunks []domain.Chunk) ([]string, error)

	// AddDocumentWithChunks stores a document and its chunks in one transaction.
	AddDocumentWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents ordered by upload time.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetChunks returns a document's chunks in document order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	// Deleting a missing document is not an error.
	DeleteDocument(ctx context.Context, id string) error

	// AllChunkVectors returns every stored chunk with its embedding, in
	// insertion order, read from a single consistent snapshot.
	AllChunkVectors(ctx context.Context) ([]domain.Chunk, error)

	// Dimensions returns the length of stored vectors, or 0 when none are stored.
	Dimensions(ctx context.Context) (int, error)

	// Stats summarises the corpus.
	Stats(ctx context.Context) (domain.CorpusStats, error)
}

// ChatStore persists the append-only chat log.
type ChatStore interface {
	// LogChat appends a completed chat turn.
	LogChat(ctx context.Context, turn *domain.ChatTurn) error

	// ListChats returns turns oldest first. When limit > 0 only the most
	// recent limit turns are returned.
	ListChats(ctx context.Context, limit int) ([]domain.ChatTurn, error)
}
