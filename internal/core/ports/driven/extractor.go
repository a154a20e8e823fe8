package driven

import "context"

// TextExtractor turns raw file bytes into plain text.
// Each extractor handles specific file extensions (e.g., ".pdf", ".txt").
type TextExtractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// SupportedExtensions returns lower-case extensions including the dot.
	SupportedExtensions() []string

	// Extract returns the document text. Corrupt input fails with an error
	// wrapping domain.ErrExtractionFailed. Empty text is not an error here.
	Extract(ctx context.Context, content []byte) (string, error)
}

// ExtractorRegistry selects an extractor by file name.
type ExtractorRegistry interface {
	// Register adds an extractor for its extensions, replacing earlier ones.
	Register(extractor TextExtractor)

	// Extract extracts text from a named file.
	// Returns domain.ErrUnsupportedFileType when no extractor matches.
	Extract(ctx context.Context, fileName string, content []byte) (string, error)

	// SupportedExtensions lists every registered extension, sorted.
	SupportedExtensions() []string
}
