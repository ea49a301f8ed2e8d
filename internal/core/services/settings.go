package services

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedDimensions = "embedding.dimensions"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyChunkSize       = "retrieval.chunk_size"
	keyOverlap         = "retrieval.overlap"
	keyTopK            = "retrieval.top_k"
	keyFanOut          = "retrieval.fan_out"
	keyRequestTimeout  = "timeouts.request_seconds"
	keyRateLimitRPS    = "ratelimit.requests_per_second"
	keyRateLimitBurst  = "ratelimit.burst"
	keyVectorBackend   = "vector.backend"
	keyVectorDSN       = "vector.dsn"
	keyVectorColl      = "vector.collection"
	keyStorageDir      = "storage.dir"
	keyTaxonomyFile    = "taxonomy.file"
	keyTaxonomyCats    = "taxonomy.categories"
)

// EnvPGDSN overrides vector.dsn when set.
const EnvPGDSN = "DOCTAG_PG_DSN"

// DefaultOllamaBaseURL is the OpenAI-compatible endpoint of a local Ollama server.
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// TaxonomyLoader reads a taxonomy definition file.
type TaxonomyLoader func(path string) (domain.Taxonomy, error)

// SettingsService manages application settings.
type SettingsService struct {
	configStore  driven.ConfigStore
	lookupEnv    func(string) (string, bool)
	loadTaxonomy TaxonomyLoader
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnvLookup overrides environment lookup (default: os.LookupEnv).
func WithEnvLookup(lookup func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		s.lookupEnv = lookup
	}
}

// WithTaxonomyLoader sets the loader used for taxonomy.file.
func WithTaxonomyLoader(loader TaxonomyLoader) SettingsOption {
	return func(s *SettingsService) {
		s.loadTaxonomy = loader
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings. Unknown provider or backend
// names fall back to defaults. A taxonomy that cannot be loaded is an error.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			Dimensions: s.configStore.GetInt(keyEmbedDimensions),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
		},
		Retrieval: domain.RetrievalSettings{
			ChunkSize: s.getInt(keyChunkSize, defaults.Retrieval.ChunkSize),
			Overlap:   s.getInt(keyOverlap, defaults.Retrieval.Overlap),
			TopK:      s.getInt(keyTopK, defaults.Retrieval.TopK),
			FanOut:    s.getInt(keyFanOut, defaults.Retrieval.FanOut),
		},
		Vector: domain.VectorSettings{
			Backend:    s.getBackend(defaults.Vector.Backend),
			DSN:        s.configStore.GetString(keyVectorDSN),
			Collection: s.getString(keyVectorColl, defaults.Vector.Collection),
		},
		RateLimit: domain.RateLimitSettings{
			RequestsPerSecond: s.configStore.GetFloat(keyRateLimitRPS),
			Burst:             s.configStore.GetInt(keyRateLimitBurst),
		},
		RequestTimeout: defaults.RequestTimeout,
		StorageDir:     s.configStore.GetString(keyStorageDir),
		TaxonomyFile:   s.configStore.GetString(keyTaxonomyFile),
	}

	// Models default per provider, so a provider switch without a model still works.
	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	if secs := s.configStore.GetFloat(keyRequestTimeout); secs > 0 {
		settings.RequestTimeout = time.Duration(secs * float64(time.Second))
	}

	settings.Embedding.APIKey = s.apiKey(settings.Embedding.Provider)
	settings.LLM.APIKey = s.apiKey(settings.LLM.Provider)
	if dsn, ok := s.lookupEnv(EnvPGDSN); ok && dsn != "" {
		settings.Vector.DSN = dsn
	}

	taxonomy, err := s.taxonomy()
	if err != nil {
		return nil, err
	}
	settings.Taxonomy = taxonomy

	return settings, nil
}

// Save persists application settings. API keys are never written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyChunkSize, settings.Retrieval.ChunkSize},
		{keyOverlap, settings.Retrieval.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyFanOut, settings.Retrieval.FanOut},
		{keyRequestTimeout, settings.RequestTimeout.Seconds()},
		{keyRateLimitRPS, settings.RateLimit.RequestsPerSecond},
		{keyRateLimitBurst, settings.RateLimit.Burst},
		{keyVectorBackend, string(settings.Vector.Backend)},
		{keyVectorColl, settings.Vector.Collection},
		{keyStorageDir, settings.StorageDir},
		{keyTaxonomyFile, settings.TaxonomyFile},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// The DSN may come from the environment; only persist one that was configured.
	if _, fromEnv := s.lookupEnv(EnvPGDSN); !fromEnv {
		if err := s.configStore.Set(keyVectorDSN, settings.Vector.DSN); err != nil {
			return fmt.Errorf("save %s: %w", keyVectorDSN, err)
		}
	}

	if settings.TaxonomyFile == "" && !sameTaxonomy(settings.Taxonomy, domain.DefaultTaxonomy()) {
		if err := s.configStore.Set(keyTaxonomyCats, taxonomyTables(settings.Taxonomy)); err != nil {
			return fmt.Errorf("save %s: %w", keyTaxonomyCats, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrConfiguration, provider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.Model = model
	settings.Embedding.BaseURL = defaultBaseURL(provider)

	// A stale override would not match the new model.
	settings.Embedding.Dimensions = 0

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.Model = model
	settings.LLM.BaseURL = defaultBaseURL(provider)

	return s.Save(settings)
}

// Validate checks the current settings are usable. Provider credentials are
// checked when the provider is constructed.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return ValidateSettings(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateSettings checks settings that do not depend on a store.
func ValidateSettings(settings *domain.AppSettings) error {
	if err := settings.Retrieval.Validate(); err != nil {
		return err
	}
	if !settings.Vector.Backend.IsValid() {
		return fmt.Errorf("%w: unknown vector backend %q", domain.ErrConfiguration, settings.Vector.Backend)
	}
	if settings.Vector.Backend == domain.VectorBackendPGVector && settings.Vector.DSN == "" {
		return fmt.Errorf("%w: pgvector backend requires vector.dsn or %s", domain.ErrConfiguration, EnvPGDSN)
	}
	if settings.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", domain.ErrConfiguration)
	}
	if settings.RateLimit.RequestsPerSecond < 0 || settings.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: rate limit values must not be negative", domain.ErrConfiguration)
	}
	if !settings.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrConfiguration, settings.Embedding.Provider)
	}
	return settings.Taxonomy.Validate()
}

// taxonomy resolves the taxonomy: file first, then inline tables, then the default.
func (s *SettingsService) taxonomy() (domain.Taxonomy, error) {
	if path := s.configStore.GetString(keyTaxonomyFile); path != "" {
		if s.loadTaxonomy == nil {
			return nil, fmt.Errorf("%w: taxonomy.file is set but no loader is configured", domain.ErrConfiguration)
		}
		taxonomy, err := s.loadTaxonomy(path)
		if err != nil {
			return nil, err
		}
		return taxonomy, nil
	}

	tables := s.configStore.GetTables(keyTaxonomyCats)
	if len(tables) == 0 {
		return domain.DefaultTaxonomy(), nil
	}

	taxonomy := make(domain.Taxonomy, 0, len(tables))
	for i, table := range tables {
		name, _ := table["name"].(string)
		category := domain.Category{Name: name}
		switch tags := table["tags"].(type) {
		case []string:
			category.Tags = tags
		case []any:
			for _, tag := range tags {
				str, ok := tag.(string)
				if !ok {
					return nil, fmt.Errorf("%w: category %d has a non-string tag", domain.ErrConfiguration, i)
				}
				category.Tags = append(category.Tags, str)
			}
		}
		taxonomy = append(taxonomy, category)
	}
	if err := taxonomy.Validate(); err != nil {
		return nil, err
	}
	return taxonomy, nil
}

func (s *SettingsService) apiKey(provider domain.AIProvider) string {
	env := provider.APIKeyEnv()
	if env == "" {
		return ""
	}
	key, _ := s.lookupEnv(env)
	return key
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt returns defaultVal only when the key is absent, so an explicit 0 is kept.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	val := s.configStore.GetString(keyVectorBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.VectorBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func defaultBaseURL(provider domain.AIProvider) string {
	if provider == domain.AIProviderOllama {
		return DefaultOllamaBaseURL
	}
	return ""
}

func sameTaxonomy(a, b domain.Taxonomy) bool {
	return slices.EqualFunc(a, b, func(x, y domain.Category) bool {
		return x.Name == y.Name && slices.Equal(x.Tags, y.Tags)
	})
}

func taxonomyTables(taxonomy domain.Taxonomy) []map[string]any {
	tables := make([]map[string]any, len(taxonomy))
	for i, c := range taxonomy {
		tables[i] = map[string]any{"name": c.Name, "tags": c.Tags}
	}
	return tables
}
