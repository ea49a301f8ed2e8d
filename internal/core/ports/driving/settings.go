package driving

import "github.com/custodia-labs/doctag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings. API keys come from the environment.
	Get() (*domain.AppSettings, error)

	// Save persists application settings. API keys are never written.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider and model.
	// An empty model selects the provider default.
	SetEmbeddingProvider(provider domain.AIProvider, model string) error

	// SetLLMProvider configures the LLM provider and model.
	// An empty model selects the provider default.
	SetLLMProvider(provider domain.AIProvider, model string) error

	// Validate checks the current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
