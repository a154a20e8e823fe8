// Package ai builds the embedding and chat provider clients named by the
// current settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	ollamaembed "github.com/custodia-labs/ragnote/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragnote/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/ragnote/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragnote/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Ensure Factory implements the interface.
var _ driven.AIServiceFactory = (*Factory)(nil)

// Options configures a Factory.
type Options struct {
	// Guard tunes the breaker and limiter wrapped around each client.
	Guard GuardConfig

	// HTTPClient is shared by every client. Nil gives each adapter its own.
	HTTPClient *http.Client
}

// llmKey identifies an LLM client. Prompt and streaming settings do not
// change the client, so they are left out.
type llmKey struct {
	provider domain.AIProvider
	model    string
	baseURL  string
	apiKey   string
}

// Factory hands out guarded provider clients and reuses them while the
// settings that built them stay the same. It is safe for concurrent use.
type Factory struct {
	opts Options

	mu         sync.Mutex
	embeddings map[domain.EmbeddingSettings]driven.EmbeddingService
	llms       map[llmKey]driven.LLMService
}

// NewFactory creates a factory.
func NewFactory(opts Options) *Factory {
	return &Factory{
		opts:       opts,
		embeddings: make(map[domain.EmbeddingSettings]driven.EmbeddingService),
		llms:       make(map[llmKey]driven.LLMService),
	}
}

// EmbeddingService returns the guarded client for settings.
func (f *Factory) EmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	// Batch size never reaches the provider.
	key := settings
	key.BatchSize = 0

	f.mu.Lock()
	defer f.mu.Unlock()

	if svc, ok := f.embeddings[key]; ok {
		return svc, nil
	}

	svc, err := CreateEmbeddingService(settings, f.opts.HTTPClient)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("embedding/%s/%s", settings.Provider, settings.Model)
	logger.Debug("Created %s client for %s", name, settings.BaseURL)
	guarded := &guardedEmbedding{
		EmbeddingService: svc,
		guard:            newGuard(name, f.opts.Guard, domain.ErrEmbeddingUnavailable),
	}
	f.embeddings[key] = guarded
	return guarded, nil
}

// LLMService returns the guarded client for settings.
func (f *Factory) LLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	key := llmKey{
		provider: settings.Provider,
		model:    settings.Model,
		baseURL:  settings.BaseURL,
		apiKey:   settings.APIKey,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if svc, ok := f.llms[key]; ok {
		return svc, nil
	}

	svc, err := CreateLLMService(settings, f.opts.HTTPClient)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("chat/%s/%s", settings.Provider, settings.Model)
	logger.Debug("Created %s client for %s", name, settings.BaseURL)
	guarded := &guardedLLM{
		LLMService: svc,
		guard:      newGuard(name, f.opts.Guard, domain.ErrLLMUnavailable),
	}
	f.llms[key] = guarded
	return guarded, nil
}

// Close releases every cached client.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for key, svc := range f.embeddings {
		errs = append(errs, svc.Close())
		delete(f.embeddings, key)
	}
	for key, svc := range f.llms {
		errs = append(errs, svc.Close())
		delete(f.llms, key)
	}
	return errors.Join(errs...)
}

// CreateEmbeddingService creates an unguarded embedding client for settings.
// httpClient may be nil.
func CreateEmbeddingService(settings domain.EmbeddingSettings, httpClient *http.Client) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, notConfigured("embedding", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			HTTPClient: httpClient,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
			HTTPClient: httpClient,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrInvalidConfig, settings.Provider)
	}
}

// CreateLLMService creates an unguarded chat client for settings.
// httpClient may be nil.
func CreateLLMService(settings domain.LLMSettings, httpClient *http.Client) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, notConfigured("chat", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			HTTPClient: httpClient,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			HTTPClient: httpClient,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported chat provider: %s", domain.ErrInvalidConfig, settings.Provider)
	}
}

func notConfigured(kind string, provider domain.AIProvider) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unsupported %s provider: %q", domain.ErrInvalidConfig, kind, provider)
	}
	if provider.RequiresAPIKey() {
		return fmt.Errorf("%w: %s provider %s needs an API key. Run 'ragnote settings set %s.api_key <key>'",
			domain.ErrInvalidConfig, kind, provider, kind)
	}
	return fmt.Errorf("%w: %s model is required", domain.ErrInvalidConfig, kind)
}

// ValidateEmbeddingConfig creates a client for settings and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// ValidateLLMConfig creates a client for settings and pings it.
func ValidateLLMConfig(ctx context.Context, settings domain.LLMSettings) error {
	svc, err := CreateLLMService(settings, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}
