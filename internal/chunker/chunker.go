// Package chunker splits document text into fixed-size overlapping chunks.
// Sizes and offsets are measured in Unicode code points.
package chunker

import (
	"fmt"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// Chunker splits text into chunks of chunkSize code points, consecutive chunks
// sharing overlap code points. A Chunker is immutable and safe for concurrent use.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in code points.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between consecutive chunks in code points.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker. Without options it uses domain.DefaultChunkSize and
// domain.DefaultChunkOverlap. Returns domain.ErrConfiguration unless
// chunkSize > 0 and 0 <= overlap < chunkSize.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, c.chunkSize)
	}
	if c.overlap < 0 || c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d",
			domain.ErrConfiguration, c.chunkSize, c.overlap)
	}

	return c, nil
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split walks text in a single forward pass. Each chunk spans
// [cursor, cursor+chunkSize) clamped to the text length and the cursor
// advances by chunkSize-overlap until it reaches the end. Empty text
// yields no chunks.
func (c *Chunker) Split(documentID, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	step := c.chunkSize - c.overlap

	chunks := make([]domain.Chunk, 0, n/step+1)
	for cursor, index := 0, 0; cursor < n; cursor, index = cursor+step, index+1 {
		end := min(cursor+c.chunkSize, n)
		chunks = append(chunks, domain.Chunk{
			DocumentID:  documentID,
			Index:       index,
			Text:        string(runes[cursor:end]),
			StartOffset: cursor,
			EndOffset:   end,
		})
	}

	return chunks
}
