package driving

import (
	"context"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// ClassifierService assigns a taxonomy category to document text.
type ClassifierService interface {
	// Classify returns exactly one category of taxonomy. A nil taxonomy uses the
	// configured default. Empty text fails with domain.ErrValidation before any
	// model call; an out-of-taxonomy response fails with domain.ErrClassificationParse.
	Classify(ctx context.Context, text string, taxonomy domain.Taxonomy) (domain.Category, error)
}
