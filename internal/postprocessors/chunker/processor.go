// Package chunker provides a fixed-size sliding-window text chunker.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Split slides a window of chunkSize characters over text, advancing by
// chunkSize-overlap, and stops after the first window that reaches the end
// of the text. Characters are Unicode code points. Whitespace-only windows
// are dropped; kept windows are returned verbatim.
//
// Returns domain.ErrInvalidConfig unless chunkSize > 0 and 0 <= overlap < chunkSize.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if err := (domain.ChunkingSettings{Size: chunkSize, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	// ASCII fast path avoids the rune conversion for the common case.
	var runes []rune
	length := len(text)
	if !isASCII(text) {
		runes = []rune(text)
		length = len(runes)
	}

	window := func(start, end int) string {
		if runes == nil {
			return text[start:end]
		}
		return string(runes[start:end])
	}

	step := chunkSize - overlap
	chunks := make([]string, 0, length/step+1)

	for start := 0; start < length; start += step {
		end := min(start+chunkSize, length)

		if piece := window(start, end); strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}

		if end == length {
			break
		}
	}

	return chunks, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Processor splits document text into domain chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Invalid combinations are rejected with domain.ErrInvalidConfig.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := (domain.ChunkingSettings{Size: p.chunkSize, Overlap: p.overlap}).Validate(); err != nil {
		return nil, fmt.Errorf("creating chunker: %w", err)
	}

	return p, nil
}

// FromSettings creates a processor from chunking settings.
func FromSettings(s domain.ChunkingSettings) (*Processor, error) {
	return New(WithChunkSize(s.Size), WithOverlap(s.Overlap))
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the window length in characters.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the number of characters shared by consecutive windows.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits text into chunks owned by documentID.
// Chunks get fresh IDs and sequential positions; embeddings are left empty.
func (p *Processor) Process(documentID, text string) ([]domain.Chunk, error) {
	pieces, err := Split(text, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Text:       piece,
			Position:   i,
		}
	}

	return chunks, nil
}
