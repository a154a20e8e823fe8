package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// AddDocument stores a document with no chunks.
func (s *documentStore) AddDocument(ctx context.Context, doc *domain.Document) error {
	return s.AddDocumentWithChunks(ctx, doc, nil)
}

// AddDocumentWithChunks stores a document and its chunks in one transaction.
// Missing IDs and upload times are filled in on the passed values.
func (s *documentStore) AddDocumentWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if strings.TrimSpace(doc.FileName) == "" {
		return fmt.Errorf("%w: document file name is required", domain.ErrInvalidInput)
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, file_name, uploaded_at)
		VALUES (?, ?, ?)
	`, doc.ID, doc.FileName, toUnixNano(doc.UploadedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: document %s already exists", domain.ErrInvalidInput, doc.ID)
	}
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	if _, err := insertChunks(ctx, tx, doc.ID, chunks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AddChunks appends chunks to an existing document and returns their IDs.
func (s *documentStore) AddChunks(ctx context.Context, documentID string, chunks []domain.Chunk) ([]string, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE id = ?", documentID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking document: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDocument, documentID)
	}

	ids, err := insertChunks(ctx, tx, documentID, chunks)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return ids, nil
}

// insertChunks validates and writes chunks inside tx. Positions continue
// after the document's existing chunks.
func insertChunks(ctx context.Context, tx *sql.Tx, documentID string, chunks []domain.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}

	var dims int
	err := tx.QueryRowContext(ctx, "SELECT dims FROM chunks ORDER BY seq LIMIT 1").Scan(&dims)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reading store dimension: %w", err)
	}

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM chunks WHERE document_id = ?", documentID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("reading chunk position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, text, embedding, dims)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, len(chunks))
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

		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}

		_, err := stmt.ExecContext(ctx, id, documentID, next+i, c.Text, EncodeVector(c.Embedding), len(c.Embedding))
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: chunk %s already exists", domain.ErrInvalidInput, id)
		}
		if err != nil {
			return nil, fmt.Errorf("saving chunk: %w", err)
		}
		ids[i] = id
	}

	return ids, nil
}

// GetDocument retrieves a document by ID with its chunk count.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT d.id, d.file_name, d.uploaded_at,
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		FROM documents d WHERE d.id = ?
	`, id)

	doc, err := scanDocument(row)
	if err != nil {
		return nil, scanErr(err, "document", domain.ErrNotFound)
	}
	return doc, nil
}

// ListDocuments returns all documents ordered by upload time, then insertion order.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT d.id, d.file_name, d.uploaded_at,
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)
		FROM documents d
		ORDER BY d.uploaded_at, d.seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// GetChunks retrieves all chunks for a document in position order.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	tx, err := s.store.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE id = ?", documentID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking document: %w", err)
	}
	if exists == 0 {
		return nil, domain.ErrNotFound
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, document_id, position, text, embedding
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// DeleteDocument removes a document and its chunks in one transaction.
// Deleting a missing document is not an error.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", id); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AllChunkVectors returns every chunk in insertion order from one read
// transaction, so a concurrent ingestion is either fully visible or not at all.
func (s *documentStore) AllChunkVectors(ctx context.Context) ([]domain.Chunk, error) {
	tx, err := s.store.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx, `
		SELECT id, document_id, position, text, embedding
		FROM chunks
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// Dimensions returns the length of stored vectors, or 0 when none are stored.
func (s *documentStore) Dimensions(ctx context.Context) (int, error) {
	var dims int
	err := s.store.db.QueryRowContext(ctx, "SELECT dims FROM chunks ORDER BY seq LIMIT 1").Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading store dimension: %w", err)
	}
	return dims, nil
}

// Stats summarises the stored documents and chunks.
// ChatTurns is left at zero; chats are counted through the chat store.
func (s *documentStore) Stats(ctx context.Context) (domain.CorpusStats, error) {
	var stats domain.CorpusStats
	err := s.store.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM chunks),
			COALESCE((SELECT dims FROM chunks ORDER BY seq LIMIT 1), 0)
	`).Scan(&stats.Documents, &stats.Chunks, &stats.Dimensions)
	if err != nil {
		return domain.CorpusStats{}, fmt.Errorf("reading stats: %w", err)
	}
	return stats, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var uploadedAt int64
	if err := row.Scan(&doc.ID, &doc.FileName, &uploadedAt, &doc.ChunkCount); err != nil {
		return nil, err
	}
	doc.UploadedAt = fromUnixNano(uploadedAt)
	return &doc, nil
}

func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	chunks := []domain.Chunk{}
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Position, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		c.Embedding = vec
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}
