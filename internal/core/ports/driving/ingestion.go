package driving

import (
	"context"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// IngestionService turns uploaded files into stored documents.
type IngestionService interface {
	// IngestFile extracts, chunks, embeds and stores one file.
	// On error no document is stored.
	IngestFile(ctx context.Context, file domain.UploadedFile) (*domain.Document, error)

	// IngestFiles ingests each file independently and reports every outcome
	// in input order. One file's failure does not stop the others.
	IngestFiles(ctx context.Context, files []domain.UploadedFile) []domain.IngestResult

	// SupportedExtensions lists the file extensions that can be ingested.
	SupportedExtensions() []string
}
