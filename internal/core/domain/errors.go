package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates bad chunking, retrieval or provider parameters.
	// It is a caller error and is never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownDocument indicates chunks were added for a document that does not exist.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrDimensionMismatch indicates a vector whose length differs from the store's.
	// Mixing dimensionalities corrupts the similarity space, so this is fatal.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding provider could not serve a request.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the chat provider could not serve a request.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Extraction Errors.

	// ErrNoExtractableText indicates a file produced no text.
	ErrNoExtractableText = errors.New("no extractable text")

	// ErrUnsupportedFileType indicates no extractor handles the file's type.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrExtractionFailed indicates the file could not be parsed.
	ErrExtractionFailed = errors.New("text extraction failed")
)
