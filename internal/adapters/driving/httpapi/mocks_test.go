package httpapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) IngestFile(ctx context.Context, file domain.UploadedFile) (*domain.Document, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockIngestionService) IngestFiles(ctx context.Context, files []domain.UploadedFile) []domain.IngestResult {
	args := m.Called(ctx, files)
	return args.Get(0).([]domain.IngestResult)
}

func (m *MockIngestionService) SupportedExtensions() []string {
	return []string{".md", ".pdf", ".txt"}
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

type MockChatService struct {
	mock.Mock

	// fragments are passed to onFragment by AskStream before it returns.
	fragments []string
}

func (m *MockChatService) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

func (m *MockChatService) AskStream(ctx context.Context, req domain.AskRequest, onFragment func(string) error) (*domain.Answer, error) {
	args := m.Called(ctx, req)
	for _, f := range m.fragments {
		if err := onFragment(f); err != nil {
			return nil, err
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, limit int) ([]domain.ChatTurn, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatTurn), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) Chunks(ctx context.Context, id string) ([]domain.Chunk, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chunk), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDocumentService) Stats(ctx context.Context) (domain.CorpusStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.CorpusStats), args.Error(1)
}
