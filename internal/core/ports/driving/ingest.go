package driving

import (
	"context"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// IngestService turns raw documents into classified, stored records.
type IngestService interface {
	// Ingest extracts, classifies and stores a raw document.
	// Unsupported formats fail with domain.ErrUnsupportedFormat before extraction.
	Ingest(ctx context.Context, raw *domain.RawDocument, opts IngestOptions) (*domain.DocumentRecord, error)

	// IngestURI fetches a local path or http(s) URL and ingests it.
	IngestURI(ctx context.Context, uri string, opts IngestOptions) (*domain.DocumentRecord, error)

	// ClassifyURI fetches, extracts and classifies a document without storing it.
	ClassifyURI(ctx context.Context, uri string) (domain.Category, error)

	// Forget deletes every record ingested from uri and returns how many were removed.
	Forget(ctx context.Context, uri string) (int, error)
}

// IngestOptions controls optional ingestion steps.
type IngestOptions struct {
	// Details requests key entity extraction (dates, amounts, names).
	Details bool

	// Semantics requests semantic analysis (topics, entities, sentiment, relationships).
	Semantics bool
}

// DetailsService extracts key entities from document text.
type DetailsService interface {
	// Extract returns the dates, amounts and names found in text.
	// An unparseable model response fails with domain.ErrDetailsParse.
	Extract(ctx context.Context, text string) (*domain.DocumentDetails, error)
}

// SemanticsService analyses the topics, entities, sentiment and relationships of document text.
type SemanticsService interface {
	// Analyze returns a semantic analysis of text.
	// An unparseable model response fails with domain.ErrSemanticsParse.
	Analyze(ctx context.Context, text string) (*domain.DocumentSemantics, error)
}
