package mcp

import (
	"context"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
)

// mockClassifier is a mock implementation of driving.ClassifierService.
type mockClassifier struct {
	category domain.Category
	err      error
}

func (m *mockClassifier) Classify(_ context.Context, _ string, _ domain.Taxonomy) (domain.Category, error) {
	return m.category, m.err
}

// mockIngest is a mock implementation of driving.IngestService.
type mockIngest struct {
	category domain.Category
	err      error
	uri      string
}

func (m *mockIngest) Ingest(_ context.Context, _ *domain.RawDocument, _ driving.IngestOptions) (*domain.DocumentRecord, error) {
	return nil, m.err
}

func (m *mockIngest) IngestURI(_ context.Context, _ string, _ driving.IngestOptions) (*domain.DocumentRecord, error) {
	return nil, m.err
}

func (m *mockIngest) ClassifyURI(_ context.Context, uri string) (domain.Category, error) {
	m.uri = uri
	return m.category, m.err
}

func (m *mockIngest) Forget(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

// mockCorpus is a mock implementation of driving.CorpusService.
type mockCorpus struct {
	result     *driving.AskResult
	results    []driving.SearchResult
	err        error
	opts       driving.AskOptions
	query      string
	searchOpts driving.SearchOptions
}

func (m *mockCorpus) Ask(_ context.Context, _ string, opts driving.AskOptions) (*driving.AskResult, error) {
	m.opts = opts
	return m.result, m.err
}

func (m *mockCorpus) Search(_ context.Context, query string, opts driving.SearchOptions) ([]driving.SearchResult, error) {
	m.query = query
	m.searchOpts = opts
	return m.results, m.err
}

func (m *mockCorpus) Reindex(_ context.Context) error {
	return m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	records []domain.DocumentRecord
	err     error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentRecord, error) {
	return m.records, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.DocumentRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func testRecords() []domain.DocumentRecord {
	return []domain.DocumentRecord{
		{ID: "doc-1", SourceURI: "/docs/invoice.pdf", Format: domain.FormatPDF,
			Category: domain.CategoryInvoice, Text: "Invoice #42"},
		{ID: "doc-2", SourceURI: "/docs/cv.docx", Format: domain.FormatDOCX,
			Category: domain.CategoryResume, Text: "Skills: Go"},
	}
}
