package mcp

import (
	"context"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.RetrievedChunk
	err     error

	gotQuery string
	gotOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	m.gotQuery = query
	m.gotOpts = opts
	return m.results, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer *domain.Answer
	turns  []domain.ChatTurn
	err    error

	gotRequest domain.AskRequest
	gotLimit   int
}

func (m *mockChatService) Ask(_ context.Context, req domain.AskRequest) (*domain.Answer, error) {
	m.gotRequest = req
	return m.answer, m.err
}

func (m *mockChatService) AskStream(
	ctx context.Context, req domain.AskRequest, _ func(string) error,
) (*domain.Answer, error) {
	return m.Ask(ctx, req)
}

func (m *mockChatService) History(_ context.Context, limit int) ([]domain.ChatTurn, error) {
	m.gotLimit = limit
	return m.turns, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	chunks    []domain.Chunk
	stats     domain.CorpusStats
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (domain.CorpusStats, error) {
	return m.stats, m.err
}
