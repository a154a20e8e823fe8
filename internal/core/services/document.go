package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages ingested documents.
type DocumentService struct {
	docStore  driven.DocumentStore
	chatStore driven.ChatStore
}

// NewDocumentService creates a new document service.
// chatStore is optional; without it Stats reports zero chat turns.
func NewDocumentService(docStore driven.DocumentStore, chatStore driven.ChatStore) *DocumentService {
	return &DocumentService{
		docStore:  docStore,
		chatStore: chatStore,
	}
}

// List returns all documents ordered by upload time.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	return s.docStore.GetDocument(ctx, id)
}

// Chunks returns a document's chunks in document order.
func (s *DocumentService) Chunks(ctx context.Context, id string) ([]domain.Chunk, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	return s.docStore.GetChunks(ctx, id)
}

// Delete removes a document and its chunks. Deleting an unknown ID succeeds.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}

	if err := s.docStore.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}

	logger.Info("Deleted document %s", id)
	return nil
}

// Stats summarises the corpus and the chat log.
func (s *DocumentService) Stats(ctx context.Context) (domain.CorpusStats, error) {
	stats, err := s.docStore.Stats(ctx)
	if err != nil {
		return domain.CorpusStats{}, err
	}

	if s.chatStore != nil {
		turns, err := s.chatStore.ListChats(ctx, 0)
		if err != nil {
			return domain.CorpusStats{}, fmt.Errorf("count chats: %w", err)
		}
		stats.ChatTurns = len(turns)
	}

	return stats, nil
}
