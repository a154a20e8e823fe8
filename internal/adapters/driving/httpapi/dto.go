package httpapi

import (
	"time"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

type documentJSON struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	UploadedAt time.Time `json:"uploaded_at"`
	ChunkCount int       `json:"chunk_count"`
}

func toDocumentJSON(d domain.Document) documentJSON {
	return documentJSON{
		ID:         d.ID,
		FileName:   d.FileName,
		UploadedAt: d.UploadedAt,
		ChunkCount: d.ChunkCount,
	}
}

type ingestResultJSON struct {
	FileName   string `json:"file_name"`
	DocumentID string `json:"document_id,omitempty"`
	ChunkCount int    `json:"chunk_count"`
	Error      string `json:"error,omitempty"`
	Status     int    `json:"status"`
}

func toIngestResultJSON(r domain.IngestResult) ingestResultJSON {
	out := ingestResultJSON{
		FileName:   r.FileName,
		DocumentID: r.DocumentID,
		ChunkCount: r.ChunkCount,
		Status:     StatusFor(r.Err),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

type chunkJSON struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	FileName   string  `json:"file_name,omitempty"`
	Position   int     `json:"position"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

func toChunkJSON(r domain.RetrievedChunk) chunkJSON {
	return chunkJSON{
		ID:         r.Chunk.ID,
		DocumentID: r.Chunk.DocumentID,
		FileName:   r.FileName,
		Position:   r.Chunk.Position,
		Text:       r.Chunk.Text,
		Score:      r.Score,
	}
}

func toChunksJSON(results []domain.RetrievedChunk) []chunkJSON {
	out := make([]chunkJSON, len(results))
	for i, r := range results {
		out[i] = toChunkJSON(r)
	}
	return out
}

type storedChunkJSON struct {
	ID         string `json:"id"`
	Position   int    `json:"position"`
	Text       string `json:"text"`
	Dimensions int    `json:"dimensions"`
}

func toStoredChunksJSON(chunks []domain.Chunk) []storedChunkJSON {
	out := make([]storedChunkJSON, len(chunks))
	for i, c := range chunks {
		out[i] = storedChunkJSON{
			ID:         c.ID,
			Position:   c.Position,
			Text:       c.Text,
			Dimensions: len(c.Embedding),
		}
	}
	return out
}

type chatTurnJSON struct {
	ID        string    `json:"id"`
	UserInput string    `json:"user_input"`
	BotOutput string    `json:"bot_output"`
	Timestamp time.Time `json:"timestamp"`
}

func toChatTurnJSON(t domain.ChatTurn) chatTurnJSON {
	return chatTurnJSON{
		ID:        t.ID,
		UserInput: t.UserInput,
		BotOutput: t.BotOutput,
		Timestamp: t.Timestamp,
	}
}

type answerJSON struct {
	Turn    chatTurnJSON `json:"turn"`
	Sources []chunkJSON  `json:"sources"`
}

func toAnswerJSON(a *domain.Answer) answerJSON {
	return answerJSON{
		Turn:    toChatTurnJSON(a.Turn),
		Sources: toChunksJSON(a.Sources),
	}
}

type statsJSON struct {
	Documents  int `json:"documents"`
	Chunks     int `json:"chunks"`
	ChatTurns  int `json:"chat_turns"`
	Dimensions int `json:"dimensions"`
}

// searchRequest is the POST /search body.
type searchRequest struct {
	Query         string   `json:"query"`
	TopK          int      `json:"top_k,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
}

// askRequest is the POST /ask body.
type askRequest struct {
	Question      string   `json:"question"`
	UseRAG        *bool    `json:"use_rag,omitempty"`
	TopK          int      `json:"top_k,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
	Stream        bool     `json:"stream,omitempty"`
}
