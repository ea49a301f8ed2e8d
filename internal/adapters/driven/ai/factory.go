// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	googleembed "github.com/custodia-labs/doctag/internal/adapters/driven/embedding/google"
	openaiembed "github.com/custodia-labs/doctag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/doctag/internal/adapters/driven/llm/anthropic"
	googlellm "github.com/custodia-labs/doctag/internal/adapters/driven/llm/google"
	openaillm "github.com/custodia-labs/doctag/internal/adapters/driven/llm/openai"
	memindex "github.com/custodia-labs/doctag/internal/adapters/driven/vectorindex/memory"
	"github.com/custodia-labs/doctag/internal/adapters/driven/vectorindex/pgvector"
	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/logger"
)

// openTimeout bounds connecting to a persistent vector index.
const openTimeout = 10 * time.Second

// LanguageModelFor creates the language model for settings, bounded by the
// request timeout and the rate limit.
func LanguageModelFor(ctx context.Context, settings *domain.AppSettings) (driven.LanguageModel, error) {
	llm, err := NewLanguageModel(ctx, &settings.LLM)
	if err != nil {
		return nil, err
	}
	llm = WithLLMTimeout(llm, settings.RequestTimeout)
	if settings.RateLimit.RequestsPerSecond > 0 {
		llm = WithLLMRateLimit(llm, settings.RateLimit)
	}
	logger.Debug("LLM: %s (%s)", settings.LLM.Provider, llm.ModelName())
	return llm, nil
}

// EmbedderFor creates the embedder for settings, bounded by the request
// timeout and the rate limit.
func EmbedderFor(ctx context.Context, settings *domain.AppSettings) (driven.Embedder, error) {
	embedder, err := NewEmbedder(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	embedder = WithEmbedderTimeout(embedder, settings.RequestTimeout)
	if settings.RateLimit.RequestsPerSecond > 0 {
		embedder = WithEmbedderRateLimit(embedder, settings.RateLimit)
	}
	logger.Debug("embeddings: %s (%s, %d dims)",
		settings.Embedding.Provider, embedder.ModelName(), embedder.Dimensions())
	return embedder, nil
}

// NewLanguageModel creates the language model adapter for settings. A provider
// that needs a key without one fails with domain.ErrLLMUnavailable.
func NewLanguageModel(ctx context.Context, settings *domain.LLMSettings) (driven.LanguageModel, error) {
	if settings == nil || !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: unknown LLM provider", domain.ErrLLMUnavailable)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires %s", domain.ErrLLMUnavailable,
			settings.Provider, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI, domain.AIProviderGroq, domain.AIProviderOllama:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			Provider: string(settings.Provider),
			APIKey:   settings.APIKey,
			BaseURL:  openAIBaseURL(settings.Provider, settings.BaseURL),
			Model:    settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGoogle:
		return googlellm.NewLLMService(ctx, googlellm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", domain.ErrLLMUnavailable, settings.Provider)
	}
}

// NewEmbedder creates the embedding adapter for settings. A provider without
// embeddings, or without a required key, fails with domain.ErrEmbeddingUnavailable.
func NewEmbedder(ctx context.Context, settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	if settings == nil || !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: unknown embedding provider", domain.ErrEmbeddingUnavailable)
	}
	if !settings.Provider.SupportsEmbeddings() {
		return nil, fmt.Errorf("%w: %s does not support embeddings, use openai, ollama or google",
			domain.ErrEmbeddingUnavailable, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires %s", domain.ErrEmbeddingUnavailable,
			settings.Provider, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI, domain.AIProviderOllama:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			Provider:   string(settings.Provider),
			APIKey:     settings.APIKey,
			BaseURL:    openAIBaseURL(settings.Provider, settings.BaseURL),
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderGoogle:
		return googleembed.NewEmbeddingService(ctx, googleembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s",
			domain.ErrEmbeddingUnavailable, settings.Provider)
	}
}

// NewVectorIndexFactory returns a factory for the configured backend.
func NewVectorIndexFactory(settings domain.VectorSettings) (driven.VectorIndexFactory, error) {
	logger.Debug("vectors: %s", settings.Backend)

	switch settings.Backend {
	case domain.VectorBackendMemory, "":
		return memindex.Factory, nil

	case domain.VectorBackendPGVector:
		if settings.DSN == "" {
			return nil, fmt.Errorf("%w: pgvector backend requires a DSN", domain.ErrConfiguration)
		}
		return func(dimensions int) (driven.VectorIndex, error) {
			ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
			defer cancel()
			return pgvector.Open(ctx, settings.DSN, settings.Collection, dimensions)
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrConfiguration, settings.Backend)
	}
}

// openAIBaseURL returns the endpoint for providers served by the OpenAI client.
func openAIBaseURL(provider domain.AIProvider, configured string) string {
	if configured != "" {
		return configured
	}
	switch provider {
	case domain.AIProviderGroq:
		return openaillm.GroqBaseURL
	case domain.AIProviderOllama:
		return openaillm.OllamaBaseURL
	default:
		return openaillm.DefaultBaseURL
	}
}
