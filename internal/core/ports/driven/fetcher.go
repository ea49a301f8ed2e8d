package driven

import (
	"context"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// Fetcher retrieves raw document bytes from a URI (local path or http(s) URL).
type Fetcher interface {
	// Fetch reads the document at uri. A missing local file returns domain.ErrNotFound.
	Fetch(ctx context.Context, uri string) (*domain.RawDocument, error)
}
