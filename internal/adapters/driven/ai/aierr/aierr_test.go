package aierr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }
func (timeoutErr) Temporary() bool { return true }

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(domain.ErrEmbeddingService, "openai", nil))

	err := Wrap(domain.ErrEmbeddingService, "openai", errors.New("401 unauthorized"))
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.NotErrorIs(t, err, domain.ErrTimeout)
	assert.Contains(t, err.Error(), "openai")

	err = Wrap(domain.ErrLanguageModelService, "anthropic", fmt.Errorf("post: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, domain.ErrLanguageModelService)
	assert.ErrorIs(t, err, domain.ErrTimeout)

	err = Wrap(domain.ErrLanguageModelService, "google", timeoutErr{})
	assert.ErrorIs(t, err, domain.ErrTimeout)

	classified := fmt.Errorf("%w: already", domain.ErrLanguageModelService)
	assert.Equal(t, classified, Wrap(domain.ErrLanguageModelService, "openai", classified))
}
