package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Insertion order is tracked explicitly so listings and vector snapshots
// match the SQLite store.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	docOrder  []string
	chunks    map[string][]domain.Chunk
	seq       map[string]uint64 // chunk ID -> global insertion sequence
	nextSeq   uint64
	dims      int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
		seq:       make(map[string]uint64),
	}
}

// AddDocument stores a new document with no chunks.
// Missing IDs and upload times are filled in on the passed document.
func (s *DocumentStore) AddDocument(ctx context.Context, doc *domain.Document) error {
	return s.AddDocumentWithChunks(ctx, doc, nil)
}

// AddChunks appends chunks to an existing document and returns their IDs.
func (s *DocumentStore) AddChunks(ctx context.Context, documentID string, chunks []domain.Chunk) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[documentID]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDocument, documentID)
	}

	prepared, err := s.prepareChunks(documentID, chunks)
	if err != nil {
		return nil, err
	}

	return s.appendChunks(documentID, prepared), nil
}

// AddDocumentWithChunks stores a document and its chunks in one step.
// Either both are stored or neither is.
func (s *DocumentStore) AddDocumentWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(doc.FileName) == "" {
		return fmt.Errorf("%w: document file name is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if _, exists := s.documents[doc.ID]; exists {
		return fmt.Errorf("%w: document %s already exists", domain.ErrInvalidInput, doc.ID)
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	prepared, err := s.prepareChunks(doc.ID, chunks)
	if err != nil {
		return err
	}

	stored := *doc
	stored.ChunkCount = 0
	s.documents[doc.ID] = stored
	s.docOrder = append(s.docOrder, doc.ID)
	s.appendChunks(doc.ID, prepared)

	return nil
}

// prepareChunks validates chunks and assigns IDs without mutating the store.
// Caller must hold the write lock.
func (s *DocumentStore) prepareChunks(documentID string, chunks []domain.Chunk) ([]domain.Chunk, error) {
	dims := s.dims
	prepared := make([]domain.Chunk, len(chunks))

	for i, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			return nil, fmt.Errorf("%w: chunk %d has no text", domain.ErrInvalidInput, i)
		}
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("%w: chunk %d has no embedding", domain.ErrInvalidInput, i)
		}
		if dims == 0 {
			dims = len(c.Embedding)
		} else if len(c.Embedding) != dims {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, store has %d",
				domain.ErrDimensionMismatch, i, len(c.Embedding), dims)
		}

		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if _, exists := s.seq[c.ID]; exists {
			return nil, fmt.Errorf("%w: chunk %s already exists", domain.ErrInvalidInput, c.ID)
		}
		c.DocumentID = documentID
		c.Embedding = append([]float32(nil), c.Embedding...)
		prepared[i] = c
	}

	return prepared, nil
}

// appendChunks commits prepared chunks. Caller must hold the write lock.
func (s *DocumentStore) appendChunks(documentID string, chunks []domain.Chunk) []string {
	ids := make([]string, len(chunks))
	existing := len(s.chunks[documentID])

	for i := range chunks {
		chunks[i].Position = existing + i
		s.seq[chunks[i].ID] = s.nextSeq
		s.nextSeq++
		ids[i] = chunks[i].ID
		if s.dims == 0 {
			s.dims = len(chunks[i].Embedding)
		}
	}
	if len(chunks) > 0 {
		s.chunks[documentID] = append(s.chunks[documentID], chunks...)
	}

	return ids
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc.ChunkCount = len(s.chunks[id])
	return &doc, nil
}

// ListDocuments returns all documents ordered by upload time, then insertion order.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Document, 0, len(s.docOrder))
	for _, id := range s.docOrder {
		doc := s.documents[id]
		doc.ChunkCount = len(s.chunks[id])
		result = append(result, doc)
	}

	// Stable so equal timestamps keep insertion order.
	sortDocuments(result)

	return result, nil
}

// GetChunks retrieves all chunks for a document in position order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.documents[documentID]; !ok {
		return nil, domain.ErrNotFound
	}
	return cloneChunks(s.chunks[documentID]), nil
}

// DeleteDocument removes a document and its chunks. Deleting a missing
// document is not an error.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return nil
	}

	for _, c := range s.chunks[id] {
		delete(s.seq, c.ID)
	}
	delete(s.documents, id)
	delete(s.chunks, id)

	for i, docID := range s.docOrder {
		if docID == id {
			s.docOrder = append(s.docOrder[:i], s.docOrder[i+1:]...)
			break
		}
	}

	if len(s.seq) == 0 {
		s.dims = 0
	}

	return nil
}

// AllChunkVectors returns a snapshot of every chunk in insertion order.
func (s *DocumentStore) AllChunkVectors(ctx context.Context) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Chunk, 0, len(s.seq))
	for _, chunks := range s.chunks {
		result = append(result, cloneChunks(chunks)...)
	}
	sortChunksBySeq(result, s.seq)

	return result, nil
}

// Dimensions returns the vector length shared by stored chunks, or 0 when empty.
func (s *DocumentStore) Dimensions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims, nil
}

// Stats summarises the stored documents and chunks.
// ChatTurns is left at zero; chats live in ChatStore.
func (s *DocumentStore) Stats(_ context.Context) (domain.CorpusStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CorpusStats{
		Documents:  len(s.documents),
		Chunks:     len(s.seq),
		Dimensions: s.dims,
	}, nil
}

func cloneChunks(chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Embedding = append([]float32(nil), c.Embedding...)
		out[i] = c
	}
	return out
}
