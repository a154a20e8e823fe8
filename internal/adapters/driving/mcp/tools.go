package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query         string   `json:"query" jsonschema:"the text to find similar passages for"`
	TopK          int      `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default from settings)"`
	MinSimilarity *float64 `json:"min_similarity,omitempty" jsonschema:"minimum cosine similarity between -1 and 1 (default from settings)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

// PassageOutput represents a retrieved chunk.
type PassageOutput struct {
	DocumentID string  `json:"document_id"`
	FileName   string  `json:"file_name"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested documents"`
	UseRAG   *bool  `json:"use_rag,omitempty" jsonschema:"retrieve document context before answering (default true)"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of passages to use as context (default from settings)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string          `json:"answer"`
	Sources []PassageOutput `json:"sources"`
}

// ListDocumentsInput is the (empty) input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput describes an ingested document.
type DocumentOutput struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	UploadedAt string `json:"uploaded_at"`
	ChunkCount int    `json:"chunk_count"`
}

// StatsInput is the (empty) input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	Documents  int `json:"documents"`
	Chunks     int `json:"chunks"`
	ChatTurns  int `json:"chat_turns"`
	Dimensions int `json:"dimensions"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find passages in the ingested documents most similar to a query",
	}, s.handleSearch)

	if s.ports.Chat != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using the ingested documents as context",
		}, s.handleAsk)
	}

	if s.ports.Documents != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List the ingested documents",
		}, s.handleListDocuments)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "stats",
			Description: "Count documents, chunks and chat turns in the knowledge base",
		}, s.handleStats)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{TopK: input.TopK, MinSimilarity: input.MinSimilarity}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: toPassages(results),
		Count:   len(results),
	}
	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Chat.Ask(ctx, domain.AskRequest{
		Question: input.Question,
		UseRAG:   input.UseRAG,
		Search:   domain.SearchOptions{TopK: input.TopK},
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Turn.BotOutput,
		Sources: toPassages(answer.Sources),
	}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	return nil, ListDocumentsOutput{
		Documents: toDocuments(docs),
		Count:     len(docs),
	}, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Documents.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	return nil, StatsOutput{
		Documents:  stats.Documents,
		Chunks:     stats.Chunks,
		ChatTurns:  stats.ChatTurns,
		Dimensions: stats.Dimensions,
	}, nil
}

func toPassages(results []domain.RetrievedChunk) []PassageOutput {
	out := make([]PassageOutput, len(results))
	for i := range results {
		out[i] = PassageOutput{
			DocumentID: results[i].Chunk.DocumentID,
			FileName:   results[i].FileName,
			Position:   results[i].Chunk.Position,
			Score:      results[i].Score,
			Text:       results[i].Chunk.Text,
		}
	}
	return out
}

func toDocuments(docs []domain.Document) []DocumentOutput {
	out := make([]DocumentOutput, len(docs))
	for i := range docs {
		out[i] = DocumentOutput{
			ID:         docs[i].ID,
			FileName:   docs[i].FileName,
			UploadedAt: docs[i].UploadedAt.UTC().Format(timeFormat),
			ChunkCount: docs[i].ChunkCount,
		}
	}
	return out
}
