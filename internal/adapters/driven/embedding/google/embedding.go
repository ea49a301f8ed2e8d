// Package google provides an Embedder adapter for Google Gemini embedding models.
package google

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"github.com/custodia-labs/doctag/internal/adapters/driven/ai/aierr"
	googlellm "github.com/custodia-labs/doctag/internal/adapters/driven/llm/google"
	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.Embedder = (*EmbeddingService)(nil)

// DefaultModel is the default Gemini embedding model.
const DefaultModel = "text-embedding-004"

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the embedding model (default: text-embedding-004).
	Model string

	// Dimensions is the vector size. Zero means the known size of Model.
	Dimensions int
}

// EmbeddingService generates embeddings using Gemini.
type EmbeddingService struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is required", domain.ErrEmbeddingUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: unknown dimension for embedding model %q, set embedding.dimensions",
			domain.ErrConfiguration, cfg.Model)
	}

	client, err := genai.NewClient(ctx, googlellm.ClientOptions(cfg.APIKey, cfg.BaseURL)...)
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %w", domain.ErrEmbeddingUnavailable, err)
	}

	return &EmbeddingService{client: client, model: cfg.Model, dimensions: dimensions}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := s.client.EmbeddingModel(s.model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, aierr.Wrap(domain.ErrEmbeddingService, "google", err)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: google: no embedding returned", domain.ErrEmbeddingService)
	}
	return toFloat64(resp.Embedding.Values, s.dimensions, s.model)
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Close releases the client connection.
func (s *EmbeddingService) Close() error {
	return s.client.Close()
}

func toFloat64(values []float32, dimensions int, model string) ([]float64, error) {
	if len(values) != dimensions {
		return nil, fmt.Errorf("%w: google returned dimension %d for model %s, expected %d",
			domain.ErrConfiguration, len(values), model, dimensions)
	}
	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}
	return vec, nil
}
