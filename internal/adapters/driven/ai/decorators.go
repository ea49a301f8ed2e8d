package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/doctag/internal/adapters/driven/ai/aierr"
	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
)

// WithLLMTimeout bounds every Generate and Ping call by timeout.
// A non-positive timeout returns llm unchanged.
func WithLLMTimeout(llm driven.LanguageModel, timeout time.Duration) driven.LanguageModel {
	if timeout <= 0 {
		return llm
	}
	return &timeoutLLM{LanguageModel: llm, timeout: timeout}
}

type timeoutLLM struct {
	driven.LanguageModel
	timeout time.Duration
}

func (t *timeoutLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out, err := t.LanguageModel.Generate(ctx, prompt, opts)
	return out, aierr.Wrap(domain.ErrLanguageModelService, t.ModelName(), err)
}

func (t *timeoutLLM) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.LanguageModel.Ping(ctx)
}

// WithEmbedderTimeout bounds every Embed call by timeout.
// A non-positive timeout returns embedder unchanged.
func WithEmbedderTimeout(embedder driven.Embedder, timeout time.Duration) driven.Embedder {
	if timeout <= 0 {
		return embedder
	}
	return &timeoutEmbedder{Embedder: embedder, timeout: timeout}
}

type timeoutEmbedder struct {
	driven.Embedder
	timeout time.Duration
}

func (t *timeoutEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	vec, err := t.Embedder.Embed(ctx, text)
	return vec, aierr.Wrap(domain.ErrEmbeddingService, t.ModelName(), err)
}

// WithLLMRateLimit throttles Generate calls to the configured rate.
func WithLLMRateLimit(llm driven.LanguageModel, settings domain.RateLimitSettings) driven.LanguageModel {
	if settings.RequestsPerSecond <= 0 {
		return llm
	}
	return &rateLimitedLLM{LanguageModel: llm, limiter: newLimiter(settings)}
}

type rateLimitedLLM struct {
	driven.LanguageModel
	limiter *rate.Limiter
}

func (r *rateLimitedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", aierr.Wrap(domain.ErrLanguageModelService, "rate limiter", waitError(ctx, err))
	}
	return r.LanguageModel.Generate(ctx, prompt, opts)
}

// WithEmbedderRateLimit throttles Embed calls to the configured rate.
func WithEmbedderRateLimit(embedder driven.Embedder, settings domain.RateLimitSettings) driven.Embedder {
	if settings.RequestsPerSecond <= 0 {
		return embedder
	}
	return &rateLimitedEmbedder{Embedder: embedder, limiter: newLimiter(settings)}
}

type rateLimitedEmbedder struct {
	driven.Embedder
	limiter *rate.Limiter
}

func (r *rateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, aierr.Wrap(domain.ErrEmbeddingService, "rate limiter", waitError(ctx, err))
	}
	return r.Embedder.Embed(ctx, text)
}

func newLimiter(settings domain.RateLimitSettings) *rate.Limiter {
	burst := settings.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), burst)
}

// waitError reports a wait that would outlive the deadline as the deadline itself.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return context.DeadlineExceeded
	}
	return err
}
