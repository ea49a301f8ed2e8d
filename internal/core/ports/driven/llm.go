// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LanguageModel provides text generation for classification, detail extraction and answering.
//
// Implementations may include:
//   - OpenAI-compatible APIs (OpenAI, Groq, Ollama)
//   - Anthropic (Claude)
//   - Google Gemini
//
// Implementations classify failures as domain.ErrLanguageModelService and
// additionally wrap domain.ErrTimeout when a deadline is exceeded.
type LanguageModel interface {
	// Generate produces a completion for a single user prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate. Zero means provider default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
