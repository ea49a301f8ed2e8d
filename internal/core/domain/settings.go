package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGroq is Groq cloud inference, reached through its OpenAI-compatible API.
	AIProviderGroq AIProvider = "groq"

	// AIProviderOllama is a local Ollama instance, reached through its OpenAI-compatible API.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGoogle is Google Gemini cloud API.
	AIProviderGoogle AIProvider = "google"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderGroq, AIProviderOllama, AIProviderAnthropic, AIProviderGoogle:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p != AIProviderOllama
}

// SupportsEmbeddings returns true if the provider offers an embedding endpoint.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOpenAI || p == AIProviderOllama || p == AIProviderGoogle
}

// APIKeyEnv returns the environment variable holding the provider's API key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderGroq:
		return "GROQ_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGoogle:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGroq:
		return "Groq (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGoogle:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the API key. Loaded from the environment, never persisted.
	APIKey string

	// Dimensions overrides the model's default vector size. Zero means model default.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey is the API key. Loaded from the environment, never persisted.
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings configures chunking and retrieval for question answering.
type RetrievalSettings struct {
	// ChunkSize is the chunk length in code points.
	ChunkSize int

	// Overlap is the number of code points shared by consecutive chunks.
	Overlap int

	// TopK is the number of chunks retrieved per question.
	TopK int

	// FanOut is the maximum number of concurrent embedding calls.
	FanOut int
}

// Validate checks the retrieval settings are consistent.
func (r RetrievalSettings) Validate() error {
	if r.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, r.ChunkSize)
	}
	if r.Overlap < 0 || r.Overlap >= r.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrConfiguration, r.ChunkSize, r.Overlap)
	}
	if r.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrConfiguration, r.TopK)
	}
	if r.FanOut <= 0 {
		return fmt.Errorf("%w: fan_out must be positive, got %d", ErrConfiguration, r.FanOut)
	}
	return nil
}

// RateLimitSettings throttles calls to AI providers. Zero RequestsPerSecond disables limiting.
type RateLimitSettings struct {
	RequestsPerSecond float64
	Burst             int
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps vectors in process memory for the session.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendPGVector stores vectors in PostgreSQL with the pgvector extension.
	VectorBackendPGVector VectorBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == VectorBackendMemory || b == VectorBackendPGVector
}

// VectorSettings holds vector index configuration.
type VectorSettings struct {
	// Backend selects the index implementation.
	Backend VectorBackend

	// DSN is the PostgreSQL connection string (pgvector backend only).
	DSN string

	// Collection names the table holding this deployment's vectors (pgvector backend only).
	Collection string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Retrieval holds chunking and retrieval settings.
	Retrieval RetrievalSettings

	// Vector holds vector index settings.
	Vector VectorSettings

	// RateLimit throttles provider calls.
	RateLimit RateLimitSettings

	// RequestTimeout bounds every external call. Defaults to 30s.
	RequestTimeout time.Duration

	// StorageDir holds the document metadata database. Empty means ~/.doctag/data.
	StorageDir string

	// TaxonomyFile optionally points at a TOML or YAML taxonomy definition.
	TaxonomyFile string

	// Taxonomy is the classification taxonomy in effect.
	Taxonomy Taxonomy
}

// Default retrieval values.
const (
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultTopK           = 4
	DefaultFanOut         = 4
	DefaultRequestTimeout = 30 * time.Second
)

// DefaultAppSettings returns settings with sensible defaults.
// API keys are not part of the defaults; they come from the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider: AIProviderGroq,
			Model:    DefaultLLMModels()[AIProviderGroq],
		},
		Retrieval: RetrievalSettings{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
			TopK:      DefaultTopK,
			FanOut:    DefaultFanOut,
		},
		Vector: VectorSettings{
			Backend:    VectorBackendMemory,
			Collection: "doctag_chunks",
		},
		RequestTimeout: DefaultRequestTimeout,
		Taxonomy:       DefaultTaxonomy(),
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderGroq,
		AIProviderOllama,
		AIProviderAnthropic,
		AIProviderGoogle,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderOllama,
		AIProviderGoogle,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderOllama: "nomic-embed-text",
		AIProviderGoogle: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderGroq:      "llama-3.3-70b-versatile",
		AIProviderOllama:    "llama3.2",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGoogle:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Google models
		"text-embedding-004": 768,
		"embedding-001":      768,
	}
}
