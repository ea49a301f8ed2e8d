package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// pingTimeout bounds each provider check.
const pingTimeout = 15 * time.Second

// CheckProviders verifies the configured language model and embedder answer.
// Both are checked; every failure is reported.
func CheckProviders(ctx context.Context, settings *domain.AppSettings) error {
	return errors.Join(
		CheckLLM(ctx, &settings.LLM),
		CheckEmbedding(ctx, &settings.Embedding),
	)
}

// CheckLLM creates the language model for settings and pings it.
func CheckLLM(ctx context.Context, settings *domain.LLMSettings) error {
	llm, err := NewLanguageModel(ctx, settings)
	if err != nil {
		return err
	}
	defer llm.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := llm.Ping(ctx); err != nil {
		return fmt.Errorf("LLM %s (%s): %w", settings.Provider, llm.ModelName(), err)
	}
	return nil
}

// CheckEmbedding creates the embedder for settings and embeds a short
// text, checking the returned dimension.
func CheckEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error {
	embedder, err := NewEmbedder(ctx, settings)
	if err != nil {
		return err
	}
	defer embedder.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	vec, err := embedder.Embed(ctx, "ping")
	if err != nil {
		return fmt.Errorf("embeddings %s (%s): %w", settings.Provider, embedder.ModelName(), err)
	}
	if len(vec) != embedder.Dimensions() {
		return fmt.Errorf("%w: embeddings %s returned dimension %d, expected %d",
			domain.ErrConfiguration, settings.Provider, len(vec), embedder.Dimensions())
	}
	return nil
}
