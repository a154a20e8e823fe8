package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
)

// MockIngestionService implements driving.IngestionService for testing.
type MockIngestionService struct {
	IngestFilesFunc func(ctx context.Context, files []domain.UploadedFile) []domain.IngestResult
	Extensions      []string
}

func (m *MockIngestionService) IngestFile(ctx context.Context, file domain.UploadedFile) (*domain.Document, error) {
	r := m.IngestFiles(ctx, []domain.UploadedFile{file})[0]
	if r.Err != nil {
		return nil, r.Err
	}
	return &domain.Document{ID: r.DocumentID, FileName: r.FileName, ChunkCount: r.ChunkCount}, nil
}

func (m *MockIngestionService) IngestFiles(ctx context.Context, files []domain.UploadedFile) []domain.IngestResult {
	if m.IngestFilesFunc != nil {
		return m.IngestFilesFunc(ctx, files)
	}
	results := make([]domain.IngestResult, len(files))
	for i, f := range files {
		results[i] = domain.IngestResult{FileName: f.Name, DocumentID: "doc-" + f.Name, ChunkCount: 1}
	}
	return results
}

func (m *MockIngestionService) SupportedExtensions() []string {
	if m.Extensions != nil {
		return m.Extensions
	}
	return []string{".md", ".pdf", ".txt"}
}

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	SearchFunc func(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievedChunk, error)
}

func (m *MockSearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.RetrievedChunk, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return nil, nil
}

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	AskFunc       func(ctx context.Context, req domain.AskRequest) (*domain.Answer, error)
	AskStreamFunc func(ctx context.Context, req domain.AskRequest, onFragment func(string) error) (*domain.Answer, error)
	HistoryFunc   func(ctx context.Context, limit int) ([]domain.ChatTurn, error)
}

func (m *MockChatService) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, req)
	}
	return &domain.Answer{Turn: domain.ChatTurn{UserInput: req.Question}}, nil
}

func (m *MockChatService) AskStream(
	ctx context.Context, req domain.AskRequest, onFragment func(string) error,
) (*domain.Answer, error) {
	if m.AskStreamFunc != nil {
		return m.AskStreamFunc(ctx, req, onFragment)
	}
	return m.Ask(ctx, req)
}

func (m *MockChatService) History(ctx context.Context, limit int) ([]domain.ChatTurn, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, limit)
	}
	return nil, nil
}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	ListFunc   func(ctx context.Context) ([]domain.Document, error)
	GetFunc    func(ctx context.Context, id string) (*domain.Document, error)
	ChunksFunc func(ctx context.Context, id string) ([]domain.Chunk, error)
	DeleteFunc func(ctx context.Context, id string) error
	StatsFunc  func(ctx context.Context) (domain.CorpusStats, error)
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) Chunks(ctx context.Context, id string) ([]domain.Chunk, error) {
	if m.ChunksFunc != nil {
		return m.ChunksFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockDocumentService) Stats(ctx context.Context) (domain.CorpusStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return domain.CorpusStats{}, nil
}

// MockSettingsService implements driving.SettingsService for testing.
type MockSettingsService struct {
	Settings    *domain.AppSettings
	GetErr      error
	SetFunc     func(key, value string) error
	ValidateErr error
	Status      driving.ProviderStatus
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Settings != nil {
		return m.Settings, nil
	}
	s := domain.DefaultAppSettings()
	return &s, nil
}

func (m *MockSettingsService) Save(*domain.AppSettings) error {
	return nil
}

func (m *MockSettingsService) Set(key, value string) error {
	if m.SetFunc != nil {
		return m.SetFunc(key, value)
	}
	return nil
}

func (m *MockSettingsService) Keys() []string {
	return []string{"embedding.provider", "chat.model", "retrieval.top_k"}
}

func (m *MockSettingsService) Validate() error {
	return m.ValidateErr
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *MockSettingsService) CheckProviders(context.Context) driving.ProviderStatus {
	return m.Status
}

var (
	_ driving.IngestionService = (*MockIngestionService)(nil)
	_ driving.SearchService    = (*MockSearchService)(nil)
	_ driving.ChatService      = (*MockChatService)(nil)
	_ driving.DocumentService  = (*MockDocumentService)(nil)
	_ driving.SettingsService  = (*MockSettingsService)(nil)
)

// setupTestServices wires the commands to s and restores the previous
// services when the test ends.
func setupTestServices(t *testing.T, s *Services) {
	t.Helper()

	prev := &Services{
		Ingestion: ingestionService,
		Search:    searchService,
		Chat:      chatService,
		Documents: documentService,
		Settings:  settingsService,
		Watcher:   settingsWatcher,
		Closer:    closer,
	}
	SetServices(s)
	t.Cleanup(func() { SetServices(prev) })
}

// executeCommand runs the root command with args and returns its output.
// Flags are reset afterwards so tests do not leak state.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return executeCommandContext(t, context.Background(), stdin, args...)
}

func executeCommandContext(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	})

	// Cobra only hands the root context to subcommands that have none, so a
	// context left over from an earlier run would otherwise win.
	setContexts(rootCmd, ctx)
	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func setContexts(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		setContexts(c, ctx)
	}
}
