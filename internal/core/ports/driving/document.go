package driving

import (
	"context"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// DocumentService manages stored document records.
type DocumentService interface {
	// List returns all stored records, oldest first.
	List(ctx context.Context) ([]domain.DocumentRecord, error)

	// Get retrieves a record by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.DocumentRecord, error)

	// Delete removes a record. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
}
