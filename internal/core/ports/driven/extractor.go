package driven

import (
	"context"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// TextExtractor turns raw document bytes of one format into UTF-8 text.
// Failures are reported as domain.ErrExtraction.
type TextExtractor interface {
	// Format returns the document format this extractor handles.
	Format() domain.Format

	// Extract returns the plain text of content.
	Extract(ctx context.Context, content []byte) (string, error)
}
