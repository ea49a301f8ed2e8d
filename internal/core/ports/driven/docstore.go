package driven

import (
	"context"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// DocumentStore persists ingested document metadata and extracted text.
// Backed by SQLite; an in-memory variant exists for tests and ephemeral runs.
type DocumentStore interface {
	// Save stores or updates a document record.
	Save(ctx context.Context, record *domain.DocumentRecord) error

	// Get retrieves a record by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.DocumentRecord, error)

	// List returns all records, oldest first.
	List(ctx context.Context) ([]domain.DocumentRecord, error)

	// Delete removes a record. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
