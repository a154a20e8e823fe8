package driving

import (
	"context"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

// SettingsService manages application settings.
// Settings are re-read on every Get so edits take effect without a restart.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save validates and persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses, validates and persists one setting by key.
	Set(key, value string) error

	// Keys lists the supported setting keys in display order.
	Keys() []string

	// Validate checks the current settings.
	Validate() error

	// GetDefaults returns the default settings.
	GetDefaults() domain.AppSettings

	// CheckProviders pings the configured embedding and chat providers.
	CheckProviders(ctx context.Context) ProviderStatus
}

// ProviderStatus reports provider connectivity.
// A nil error means the provider answered.
type ProviderStatus struct {
	EmbeddingModel string
	EmbeddingErr   error
	LLMModel       string
	LLMErr         error
}
