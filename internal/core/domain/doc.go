// Package domain defines the core business entities for doctag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Extracted text of one ingested file
//   - Chunk: A contiguous span of a document's text, sized for embedding
//   - IndexEntry: A chunk together with its embedding vector
//   - Category and Taxonomy: The closed set of labels a document may receive
//   - DocumentRecord: Persisted metadata for an ingested document
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
