// Package openai provides an Embedder adapter for OpenAI-compatible embedding APIs.
// Ollama is reached through the same client with its /v1 base URL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/doctag/internal/adapters/driven/ai/aierr"
	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.Embedder = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultModel      = "text-embedding-3-small"
)

// Config holds configuration for the embedding service.
type Config struct {
	// Provider names the service in errors (default: openai).
	Provider string

	// APIKey is the API key. Optional for local servers such as Ollama.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Dimensions is the vector size. Zero means the known size of Model.
	// text-embedding-3-* models are asked to shorten to this size.
	Dimensions int

	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
}

// EmbeddingService generates embeddings using an OpenAI-compatible API.
type EmbeddingService struct {
	client     *openai.Client
	provider   string
	model      string
	dimensions int
	shorten    bool
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Provider == "" {
		cfg.Provider = string(domain.AIProviderOpenAI)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	shorten := cfg.Dimensions > 0 && strings.HasPrefix(cfg.Model, "text-embedding-3-")
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: unknown dimension for embedding model %q, set embedding.dimensions",
			domain.ErrConfiguration, cfg.Model)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &EmbeddingService{
		client:     openai.NewClientWithConfig(clientCfg),
		provider:   cfg.Provider,
		model:      cfg.Model,
		dimensions: dimensions,
		shorten:    shorten,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.model),
	}
	if s.shorten {
		req.Dimensions = s.dimensions
	}

	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			err = fmt.Errorf("status %d: %w", apiErr.HTTPStatusCode, err)
		}
		return nil, aierr.Wrap(domain.ErrEmbeddingService, s.provider, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: %s: no embedding returned", domain.ErrEmbeddingService, s.provider)
	}

	raw := resp.Data[0].Embedding
	if len(raw) != s.dimensions {
		return nil, fmt.Errorf("%w: %s returned dimension %d for model %s, expected %d",
			domain.ErrConfiguration, s.provider, len(raw), s.model, s.dimensions)
	}
	vec := make([]float64, len(raw))
	for i, v := range raw {
		vec[i] = float64(v)
	}
	return vec, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
