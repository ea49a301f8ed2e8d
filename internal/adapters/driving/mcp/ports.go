package mcp

import (
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Classifier classifies raw text.
	Classifier driving.ClassifierService

	// Ingest fetches and classifies documents by http(s) URL. Local paths
	// are rejected.
	Ingest driving.IngestService

	// Corpus answers questions about stored documents.
	Corpus driving.CorpusService

	// Documents lists stored documents.
	Documents driving.DocumentService

	// ClassifierErr explains why Classifier and Ingest are nil.
	ClassifierErr error

	// CorpusErr explains why Corpus is nil.
	CorpusErr error
}

// Validate ensures all required ports are set.
// Classifier, Ingest and Corpus are optional; their tools report why they are missing.
func (p *Ports) Validate() error {
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
