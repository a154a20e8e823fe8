package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragnote/internal/core/domain"
	"github.com/custodia-labs/ragnote/internal/core/ports/driven"
	"github.com/custodia-labs/ragnote/internal/core/ports/driving"
	"github.com/custodia-labs/ragnote/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyEmbedDimensions = "embedding.dimensions"
	keyChatProvider    = "chat.provider"
	keyChatModel       = "chat.model"
	keyChatBaseURL     = "chat.base_url"
	keyChatAPIKey      = "chat.api_key"
	keyChatPrompt      = "chat.system_prompt"
	keyChatStream      = "chat.stream"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyTopK            = "retrieval.top_k"
	keyMinSimilarity   = "retrieval.min_similarity"
	keyUseRAG          = "retrieval.use_rag"
	keyMaxContext      = "retrieval.max_context_chars"
	keyIngestWorkers   = "ingest.workers"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindProvider
)

// settingKeys lists every supported key in display order.
var settingKeys = []struct {
	key  string
	kind valueKind
}{
	{keyEmbedProvider, kindProvider},
	{keyEmbedModel, kindString},
	{keyEmbedBaseURL, kindString},
	{keyEmbedAPIKey, kindString},
	{keyEmbedBatchSize, kindInt},
	{keyEmbedDimensions, kindInt},
	{keyChatProvider, kindProvider},
	{keyChatModel, kindString},
	{keyChatBaseURL, kindString},
	{keyChatAPIKey, kindString},
	{keyChatPrompt, kindString},
	{keyChatStream, kindBool},
	{keyChunkSize, kindInt},
	{keyChunkOverlap, kindInt},
	{keyTopK, kindInt},
	{keyMinSimilarity, kindFloat},
	{keyUseRAG, kindBool},
	{keyMaxContext, kindInt},
	{keyIngestWorkers, kindInt},
}

// SettingsService manages application settings.
// Every Get reloads the backing store, so edits to config.toml apply to the
// next operation without a restart.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	prompts     driven.PromptStore
}

// NewSettingsService creates a new settings service.
// aiValidator and prompts are optional (can be nil).
func NewSettingsService(
	configStore driven.ConfigStore,
	aiValidator driven.AIConfigValidator,
	prompts driven.PromptStore,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		prompts:     prompts,
	}
}

// Get retrieves current application settings.
// Missing or malformed values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	if err := s.configStore.Load(); err != nil {
		return nil, fmt.Errorf("reload config: %w", err)
	}

	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.getString(keyEmbedBaseURL, defaults.Embedding.BaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			BatchSize:  s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			Dimensions: s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
		},
		LLM: domain.LLMSettings{
			Provider:     s.getProvider(keyChatProvider, defaults.LLM.Provider),
			Model:        s.getString(keyChatModel, defaults.LLM.Model),
			BaseURL:      s.getString(keyChatBaseURL, defaults.LLM.BaseURL),
			APIKey:       s.configStore.GetString(keyChatAPIKey),
			SystemPrompt: s.systemPrompt(),
			Stream:       s.getBool(keyChatStream, defaults.LLM.Stream),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:            s.getInt(keyTopK, defaults.Retrieval.TopK),
			MinSimilarity:   s.getFloat(keyMinSimilarity, defaults.Retrieval.MinSimilarity),
			UseRAG:          s.getBool(keyUseRAG, defaults.Retrieval.UseRAG),
			MaxContextChars: s.getInt(keyMaxContext, defaults.Retrieval.MaxContextChars),
		},
		Ingest: domain.IngestSettings{
			Workers: s.getInt(keyIngestWorkers, defaults.Ingest.Workers),
		},
	}

	return settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyChatProvider, settings.LLM.Provider.String()},
		{keyChatModel, settings.LLM.Model},
		{keyChatBaseURL, settings.LLM.BaseURL},
		{keyChatStream, settings.LLM.Stream},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyMinSimilarity, settings.Retrieval.MinSimilarity},
		{keyUseRAG, settings.Retrieval.UseRAG},
		{keyMaxContext, settings.Retrieval.MaxContextChars},
		{keyIngestWorkers, settings.Ingest.Workers},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when set; clearing one is done by editing the file.
	optional := []struct{ key, value string }{
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyChatAPIKey, settings.LLM.APIKey},
	}
	for _, v := range optional {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Set parses, validates and persists one setting.
// Unknown keys fail with domain.ErrInvalidInput and bad values with domain.ErrInvalidConfig.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := keyKind(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (see 'ragnote settings keys')", domain.ErrInvalidInput, key)
	}

	parsed, err := parseValue(kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, key, err)
	}

	// Validate the whole configuration as it would be after the change so
	// e.g. an overlap is checked against the current chunk size.
	current, err := s.Get()
	if err != nil {
		return err
	}
	if err := applyValue(current, key, parsed); err != nil {
		return err
	}
	if err := current.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	logger.Debug("Setting %s updated", key)
	return nil
}

// Keys lists the supported setting keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	for i, k := range settingKeys {
		keys[i] = k.key
	}
	return keys
}

// Validate checks the current settings, including provider credentials.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Validate(); err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s requires an API key (set %s)",
			domain.ErrInvalidConfig, settings.Embedding.Provider, keyEmbedAPIKey)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: chat provider %s requires an API key (set %s)",
			domain.ErrInvalidConfig, settings.LLM.Provider, keyChatAPIKey)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// CheckProviders pings the configured embedding and chat providers.
func (s *SettingsService) CheckProviders(ctx context.Context) driving.ProviderStatus {
	settings, err := s.Get()
	if err != nil {
		return driving.ProviderStatus{EmbeddingErr: err, LLMErr: err}
	}

	status := driving.ProviderStatus{
		EmbeddingModel: settings.Embedding.Model,
		LLMModel:       settings.LLM.Model,
	}

	if s.aiValidator == nil {
		return status
	}

	status.EmbeddingErr = s.aiValidator.ValidateEmbedding(ctx, settings.Embedding)
	status.LLMErr = s.aiValidator.ValidateLLM(ctx, settings.LLM)

	return status
}

// Helper methods for reading config with defaults.

func (s *SettingsService) systemPrompt() string {
	if prompt := s.configStore.GetString(keyChatPrompt); strings.TrimSpace(prompt) != "" {
		return prompt
	}
	if s.prompts != nil {
		if prompt, err := s.prompts.Load(driven.PromptChatSystem); err == nil && prompt != "" {
			return prompt
		}
	}
	return domain.DefaultSystemPrompt
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt falls back only when the key is absent, since zero is meaningful
// for keys such as chunking.overlap.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		logger.Warn("Ignoring unknown provider %q for %s", val, key)
		return defaultVal
	}
	return provider
}

func keyKind(key string) (valueKind, bool) {
	for _, k := range settingKeys {
		if k.key == key {
			return k.kind, true
		}
	}
	return 0, false
}

func parseValue(kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", value)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", value)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", value)
		}
		return b, nil
	case kindProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !p.IsValid() {
			return nil, fmt.Errorf("unknown provider %q", value)
		}
		return p.String(), nil
	default:
		return value, nil
	}
}

// applyValue copies a parsed value into the matching settings field.
func applyValue(s *domain.AppSettings, key string, value any) error {
	switch key {
	case keyEmbedProvider:
		s.Embedding.Provider = domain.AIProvider(value.(string))
	case keyEmbedModel:
		s.Embedding.Model = value.(string)
	case keyEmbedBaseURL:
		s.Embedding.BaseURL = value.(string)
	case keyEmbedAPIKey:
		s.Embedding.APIKey = value.(string)
	case keyEmbedBatchSize:
		s.Embedding.BatchSize = value.(int)
	case keyEmbedDimensions:
		s.Embedding.Dimensions = value.(int)
	case keyChatProvider:
		s.LLM.Provider = domain.AIProvider(value.(string))
	case keyChatModel:
		s.LLM.Model = value.(string)
	case keyChatBaseURL:
		s.LLM.BaseURL = value.(string)
	case keyChatAPIKey:
		s.LLM.APIKey = value.(string)
	case keyChatPrompt:
		s.LLM.SystemPrompt = value.(string)
	case keyChatStream:
		s.LLM.Stream = value.(bool)
	case keyChunkSize:
		s.Chunking.Size = value.(int)
	case keyChunkOverlap:
		s.Chunking.Overlap = value.(int)
	case keyTopK:
		s.Retrieval.TopK = value.(int)
	case keyMinSimilarity:
		s.Retrieval.MinSimilarity = value.(float64)
	case keyUseRAG:
		s.Retrieval.UseRAG = value.(bool)
	case keyMaxContext:
		s.Retrieval.MaxContextChars = value.(int)
	case keyIngestWorkers:
		s.Ingest.Workers = value.(int)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return nil
}

// Display returns the settings as key/value pairs in display order.
// API keys are masked.
func Display(s *domain.AppSettings) [][2]string {
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		if len(v) <= 8 {
			return "****"
		}
		return v[:4] + "****" + v[len(v)-4:]
	}

	return [][2]string{
		{keyEmbedProvider, s.Embedding.Provider.String()},
		{keyEmbedModel, s.Embedding.Model},
		{keyEmbedBaseURL, s.Embedding.BaseURL},
		{keyEmbedAPIKey, mask(s.Embedding.APIKey)},
		{keyEmbedBatchSize, strconv.Itoa(s.Embedding.BatchSize)},
		{keyEmbedDimensions, strconv.Itoa(s.Embedding.Dimensions)},
		{keyChatProvider, s.LLM.Provider.String()},
		{keyChatModel, s.LLM.Model},
		{keyChatBaseURL, s.LLM.BaseURL},
		{keyChatAPIKey, mask(s.LLM.APIKey)},
		{keyChatPrompt, s.LLM.SystemPrompt},
		{keyChatStream, strconv.FormatBool(s.LLM.Stream)},
		{keyChunkSize, strconv.Itoa(s.Chunking.Size)},
		{keyChunkOverlap, strconv.Itoa(s.Chunking.Overlap)},
		{keyTopK, strconv.Itoa(s.Retrieval.TopK)},
		{keyMinSimilarity, strconv.FormatFloat(s.Retrieval.MinSimilarity, 'g', -1, 64)},
		{keyUseRAG, strconv.FormatBool(s.Retrieval.UseRAG)},
		{keyMaxContext, strconv.Itoa(s.Retrieval.MaxContextChars)},
		{keyIngestWorkers, strconv.Itoa(s.Ingest.Workers)},
	}
}
