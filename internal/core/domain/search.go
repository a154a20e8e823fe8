package domain

// SearchOptions configures a retrieval query.
// Zero values fall back to the configured retrieval settings.
type SearchOptions struct {
	// TopK is the maximum number of results.
	TopK int

	// MinSimilarity is the lowest cosine score a result may have.
	// Nil means use the configured threshold.
	MinSimilarity *float64
}

// RetrievedChunk is a chunk ranked against a query vector.
type RetrievedChunk struct {
	// Chunk is the stored chunk.
	Chunk Chunk

	// Score is the cosine similarity to the query, in [-1, 1].
	Score float64

	// FileName is the owning document's file name, when known.
	FileName string
}

// AskRequest is a question for the chat service.
type AskRequest struct {
	// Question is the user's message.
	Question string

	// UseRAG overrides the configured retrieval toggle when non-nil.
	UseRAG *bool

	// Search overrides retrieval parameters.
	Search SearchOptions
}

// Answer is the result of a completed chat exchange.
type Answer struct {
	// Turn is the logged chat turn.
	Turn ChatTurn

	// Sources are the chunks used as context, best first.
	Sources []RetrievedChunk
}
