package domain

import "time"

// Document represents an ingested file.
// A document owns its chunks; deleting it deletes them.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// FileName is the name of the uploaded file.
	FileName string

	// UploadedAt is when the document was ingested.
	UploadedAt time.Time

	// ChunkCount is the number of chunks stored for the document.
	// It is populated by listing operations only.
	ChunkCount int
}

// Chunk represents a bounded piece of a document's text.
// Chunks are the unit of embedding and retrieval and are immutable once stored.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Text is the chunk text. Never empty or whitespace-only.
	Text string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// ChatTurn is one exchange in the append-only chat log.
type ChatTurn struct {
	// ID is the unique identifier for the turn.
	ID string

	// UserInput is the question as asked.
	UserInput string

	// BotOutput is the complete generated answer.
	BotOutput string

	// Timestamp is when the answer was completed.
	Timestamp time.Time
}

// UploadedFile is a file handed to the ingestion pipeline.
type UploadedFile struct {
	// Name is the file name; its extension selects the text extractor.
	Name string

	// Content is the raw file bytes.
	Content []byte
}

// IngestResult reports the outcome of ingesting one file.
type IngestResult struct {
	// FileName is the name of the file this result describes.
	FileName string

	// DocumentID is the created document, empty on failure.
	DocumentID string

	// ChunkCount is the number of chunks stored for the document.
	ChunkCount int

	// Err is nil on success.
	Err error
}

// OK reports whether the file was ingested.
func (r IngestResult) OK() bool {
	return r.Err == nil
}

// CorpusStats summarises the stored corpus.
type CorpusStats struct {
	Documents  int
	Chunks     int
	ChatTurns  int
	Dimensions int // 0 when no vectors are stored
}
