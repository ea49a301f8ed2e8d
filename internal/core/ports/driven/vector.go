package driven

import (
	"context"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// VectorIndex stores chunk embeddings and returns nearest neighbours by cosine similarity.
// Implementations are safe for concurrent reads; writers are serialised by the caller.
type VectorIndex interface {
	// Add appends entries in order. A batch containing any vector whose length
	// differs from Dimensions fails with domain.ErrConfiguration and leaves the
	// index unchanged.
	Add(ctx context.Context, entries []domain.IndexEntry) error

	// Query returns up to k entries ordered by non-increasing similarity.
	// Equal scores keep insertion order. k must be positive.
	Query(ctx context.Context, vector []float64, k int) ([]domain.ScoredEntry, error)

	// Len returns the number of stored entries.
	Len() int

	// Dimensions returns the vector length this index accepts.
	Dimensions() int

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorIndexFactory creates an empty index of the given dimension.
type VectorIndexFactory func(dimensions int) (VectorIndex, error)

// IndexedDocumentLister is an optional interface for persistent indexes.
// Sessions use it to skip re-embedding documents already stored by an earlier run.
type IndexedDocumentLister interface {
	// IndexedDocuments returns the IDs of documents with at least one entry.
	IndexedDocuments(ctx context.Context) ([]string, error)
}
