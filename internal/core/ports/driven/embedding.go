package driven

import "context"

// Embedder maps text to a fixed-length vector.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// Embedder generates vectors; VectorIndex stores them.
//
// Identical input yields identical output within one process run. Bit-exact
// determinism across provider model versions is not guaranteed.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	// Every returned vector has length Dimensions().
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// This must match the VectorIndex the vectors are added to.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
