package driving

import (
	"context"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// AnswerService answers questions grounded on a corpus of documents.
type AnswerService interface {
	// Answer retrieves the chunks of corpus most similar to query and asks the
	// language model to answer from them. An empty corpus returns the fallback
	// answer without calling any provider.
	Answer(ctx context.Context, query string, corpus []domain.Document) (*domain.QueryResult, error)
}

// CorpusService answers questions against the stored document collection.
type CorpusService interface {
	// Ask answers question from one stored document or the whole corpus.
	Ask(ctx context.Context, question string, opts AskOptions) (*AskResult, error)

	// Search returns the stored documents most similar to query, best first.
	// No language model is called.
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)

	// Reindex clears the vector index. Documents are embedded again on the
	// next Ask or Search.
	Reindex(ctx context.Context) error
}

// AskOptions scopes a corpus question.
type AskOptions struct {
	// DocumentID restricts retrieval to one stored document. Empty means all documents.
	DocumentID string

	// TopK overrides the configured number of retrieved chunks. Zero means default.
	TopK int
}

// AskResult is the answer to a corpus question with its supporting excerpts.
type AskResult struct {
	// Answer is the model response, verbatim.
	Answer string `json:"answer"`

	// Sources are the retrieved excerpts, relevance descending.
	Sources []Source `json:"sources"`
}

// Source references the excerpt of a stored document an answer was grounded on.
type Source struct {
	DocumentID string  `json:"document_id"`
	SourceURI  string  `json:"source_uri"`
	Excerpt    string  `json:"excerpt"`
	Score      float64 `json:"score"`
}

// SearchOptions scopes a corpus search.
type SearchOptions struct {
	// DocumentID restricts the search to one stored document. Empty means all documents.
	DocumentID string

	// Limit caps the number of documents returned. Zero means 5.
	Limit int
}

// SearchResult is a stored document matching a search, scored by its best chunk.
type SearchResult struct {
	DocumentID string        `json:"document_id"`
	SourceURI  string        `json:"source_uri"`
	Category   string        `json:"category"`
	Format     domain.Format `json:"format"`
	Score      float64       `json:"score"`

	// Excerpt is the start of the best matching chunk.
	Excerpt string `json:"excerpt"`

	// Highlights are sentences of the best chunk that contain a query term.
	Highlights []string `json:"highlights,omitempty"`
}
