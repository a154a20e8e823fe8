package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
	"github.com/custodia-labs/ragnote/internal/logger"
	"github.com/custodia-labs/ragnote/internal/postprocessors/chunker"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService extracts, chunks, embeds and stores uploaded files.
//
// Nothing is written until every step has succeeded, and the document and
// its chunks are stored in one transaction, so a failed or cancelled
// ingestion leaves no trace.
type IngestionService struct {
	settings   SettingsReader
	extractors driven.ExtractorRegistry
	embedder   *Embedder
	docStore   driven.DocumentStore
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	settings SettingsReader,
	extractors driven.ExtractorRegistry,
	embedder *Embedder,
	docStore driven.DocumentStore,
) *IngestionService {
	return &IngestionService{
		settings:   settings,
		extractors: extractors,
		embedder:   embedder,
		docStore:   docStore,
	}
}

// SupportedExtensions lists the file extensions that can be ingested.
func (s *IngestionService) SupportedExtensions() []string {
	return s.extractors.SupportedExtensions()
}

// IngestFile ingests one file and returns the stored document.
func (s *IngestionService) IngestFile(ctx context.Context, file domain.UploadedFile) (*domain.Document, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	doc, err := s.ingest(ctx, settings, file)
	if err != nil {
		logger.Warn("Ingest %s failed: %v", file.Name, err)
		return nil, err
	}

	logger.Info("Ingested %s: %d chunks", doc.FileName, doc.ChunkCount)
	return doc, nil
}

func (s *IngestionService) ingest(
	ctx context.Context, settings *domain.AppSettings, file domain.UploadedFile,
) (*domain.Document, error) {
	name := filepath.Base(strings.TrimSpace(file.Name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}

	// Validate chunking before any extraction work.
	proc, err := chunker.FromSettings(settings.Chunking)
	if err != nil {
		return nil, err
	}

	logger.Debug("Extracting %s (%d bytes)", name, len(file.Content))
	text, err := s.extractors.Extract(ctx, name, file.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrNoExtractableText)
	}

	docID := uuid.New().String()
	chunks, err := proc.Process(docID, text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrNoExtractableText)
	}
	logger.Debug("Split %s into %d chunks (size %d, overlap %d)",
		name, len(chunks), proc.ChunkSize(), proc.Overlap())

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.embed(ctx, settings.Embedding, texts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:         docID,
		FileName:   name,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.docStore.AddDocumentWithChunks(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("store %s: %w", name, err)
	}
	doc.ChunkCount = len(chunks)

	return doc, nil
}

// IngestFiles ingests files independently, up to ingest.workers at a time.
// Results are in input order. Files not started before ctx is cancelled
// report the context error.
func (s *IngestionService) IngestFiles(ctx context.Context, files []domain.UploadedFile) []domain.IngestResult {
	results := make([]domain.IngestResult, len(files))
	for i, f := range files {
		results[i].FileName = f.Name
	}

	settings, err := s.settings.Get()
	if err != nil {
		for i := range results {
			results[i].Err = err
		}
		return results
	}

	workers := max(settings.Ingest.Workers, 1)
	logger.Section("Ingestion")
	logger.Debug("Ingesting %d files with %d workers", len(files), workers)

	var g errgroup.Group
	g.SetLimit(workers)

	for i := range files {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			doc, err := s.ingest(ctx, settings, files[i])
			if err != nil {
				logger.Warn("Ingest %s failed: %v", files[i].Name, err)
				results[i].Err = err
				return nil
			}

			logger.Info("Ingested %s: %d chunks", doc.FileName, doc.ChunkCount)
			results[i].FileName = doc.FileName
			results[i].DocumentID = doc.ID
			results[i].ChunkCount = doc.ChunkCount
			return nil
		})
	}

	// Workers never return errors; failures are per-file results.
	_ = g.Wait()

	return results
}
