// Package memory provides an in-memory VectorIndex using a linear cosine scan.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// stored is an entry with its precomputed L2 norm.
type stored struct {
	entry domain.IndexEntry
	norm  float64
}

// Index is a brute-force cosine similarity index. Query cost is O(n·D).
// Reads run concurrently; Add and Clear take the write lock.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	entries    []stored
}

// New creates an empty index accepting vectors of the given dimension.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimension must be positive, got %d", domain.ErrConfiguration, dimensions)
	}
	return &Index{dimensions: dimensions}, nil
}

// Factory adapts New to driven.VectorIndexFactory.
func Factory(dimensions int) (driven.VectorIndex, error) {
	return New(dimensions)
}

// Add appends entries in order. Every vector is checked before any is stored.
func (i *Index) Add(ctx context.Context, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	batch := make([]stored, len(entries))
	for n, e := range entries {
		if len(e.Vector) != i.dimensions {
			return fmt.Errorf("%w: entry %s has dimension %d, index expects %d",
				domain.ErrConfiguration, e.Chunk.ID(), len(e.Vector), i.dimensions)
		}
		vec := make([]float64, len(e.Vector))
		copy(vec, e.Vector)
		batch[n] = stored{
			entry: domain.IndexEntry{Chunk: e.Chunk, Vector: vec},
			norm:  norm(vec),
		}
	}

	i.mu.Lock()
	i.entries = append(i.entries, batch...)
	i.mu.Unlock()
	return nil
}

// Query scores every entry against vector and returns the best k.
// Ties keep insertion order. A zero vector scores 0 against everything.
func (i *Index) Query(ctx context.Context, vector []float64, k int) ([]domain.ScoredEntry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrValidation, k)
	}
	if len(vector) != i.dimensions {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			domain.ErrConfiguration, len(vector), i.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qnorm := norm(vector)

	i.mu.RLock()
	results := make([]domain.ScoredEntry, len(i.entries))
	for n, s := range i.entries {
		results[n] = domain.ScoredEntry{
			Entry: s.entry,
			Score: cosine(vector, qnorm, s.entry.Vector, s.norm),
		}
	}
	i.mu.RUnlock()

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of stored entries.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Dimensions returns the vector length this index accepts.
func (i *Index) Dimensions() int {
	return i.dimensions
}

// Clear removes every entry.
func (i *Index) Clear(_ context.Context) error {
	i.mu.Lock()
	i.entries = nil
	i.mu.Unlock()
	return nil
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func cosine(a []float64, anorm float64, b []float64, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for n := range a {
		dot += a[n] * b[n]
	}
	return dot / (anorm * bnorm)
}
