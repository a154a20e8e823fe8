package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
)

// --- Mock implementations ---

// staticSettings implements SettingsReader with a fixed value.
type staticSettings struct {
	settings domain.AppSettings
	err      error
	calls    int
}

func newStaticSettings() *staticSettings {
	s := domain.DefaultAppSettings()
	s.Embedding.BatchSize = 2
	s.Retrieval.MinSimilarity = 0
	return &staticSettings{settings: s}
}

func (s *staticSettings) Get() (*domain.AppSettings, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	copied := s.settings
	return &copied, nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Unless embedFn is set, each text maps to a vector derived from its letters.
type mockEmbeddingService struct {
	mu       sync.Mutex
	embedFn  func(texts []string) ([][]float32, error)
	embedErr error
	calls    [][]string
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	m.mu.Unlock()

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.embedFn != nil {
		return m.embedFn(texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = letterVector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockEmbeddingService) ModelName() string           { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// letterVector counts the letters a, b and c, giving a 3-dimensional vector
// whose direction depends on the text.
func letterVector(text string) []float32 {
	v := make([]float32, 3)
	for _, r := range strings.ToLower(text) {
		switch r {
		case 'a':
			v[0]++
		case 'b':
			v[1]++
		case 'c':
			v[2]++
		}
	}
	if v[0] == 0 && v[1] == 0 && v[2] == 0 {
		v[0], v[1], v[2] = 0.1, 0.1, 0.1
	}
	return v
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response  string
	fragments []string
	chatErr   error
	streamErr error // returned by Recv after the fragments
	gotMsgs   []driven.ChatMessage
	streamed  bool
}

func (m *mockLLMService) Chat(_ context.Context, msgs []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.gotMsgs = msgs
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.response, nil
}

func (m *mockLLMService) ChatStream(
	ctx context.Context, msgs []driven.ChatMessage, _ driven.ChatOptions,
) (driven.ChatStream, error) {
	m.gotMsgs = msgs
	m.streamed = true
	if m.chatErr != nil {
		return nil, m.chatErr
	}
	return &mockChatStream{ctx: ctx, fragments: m.fragments, err: m.streamErr}, nil
}

func (m *mockLLMService) ModelName() string           { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

type mockChatStream struct {
	ctx       context.Context
	fragments []string
	err       error
	pos       int
	closed    bool
}

func (s *mockChatStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.pos < len(s.fragments) {
		s.pos++
		return s.fragments[s.pos-1], nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *mockChatStream) Close() error {
	s.closed = true
	return nil
}

// mockFactory implements driven.AIServiceFactory for testing.
type mockFactory struct {
	mu        sync.Mutex
	embedder  *mockEmbeddingService
	llm       *mockLLMService
	embedErr  error
	llmErr    error
	lastEmbed domain.EmbeddingSettings
	lastLLM   domain.LLMSettings
}

func (f *mockFactory) EmbeddingService(s domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEmbed = s
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.embedder, nil
}

func (f *mockFactory) LLMService(s domain.LLMSettings) (driven.LLMService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLLM = s
	if f.llmErr != nil {
		return nil, f.llmErr
	}
	return f.llm, nil
}

func newMockFactory() *mockFactory {
	return &mockFactory{
		embedder: &mockEmbeddingService{},
		llm:      &mockLLMService{response: "mock answer"},
	}
}

// mockValidator implements driven.AIConfigValidator for testing.
type mockValidator struct {
	embedErr error
	llmErr   error
}

func (m *mockValidator) ValidateEmbedding(_ context.Context, _ domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockValidator) ValidateLLM(_ context.Context, _ domain.LLMSettings) error {
	return m.llmErr
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", errors.New("prompt not found")
}

func (m *mockPromptStore) Reload() {}

// mockExtractors implements driven.ExtractorRegistry for testing.
// .txt content is returned as-is; .bad fails extraction; other types are unsupported.
type mockExtractors struct{}

func (mockExtractors) Register(_ driven.TextExtractor) {}

func (mockExtractors) Extract(_ context.Context, fileName string, content []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt":
		return string(content), nil
	case ".bad":
		return "", domain.ErrExtractionFailed
	default:
		return "", domain.ErrUnsupportedFileType
	}
}

func (mockExtractors) SupportedExtensions() []string {
	return []string{".txt"}
}
