package httpapi

import (
	"context"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
)

type mockClassifier struct {
	category domain.Category
	err      error
	texts    []string
}

func (m *mockClassifier) Classify(_ context.Context, text string, _ domain.Taxonomy) (domain.Category, error) {
	m.texts = append(m.texts, text)
	return m.category, m.err
}

type mockIngest struct {
	record   *domain.DocumentRecord
	category domain.Category
	err      error
	uris     []string
	opts     driving.IngestOptions
}

func (m *mockIngest) Ingest(_ context.Context, _ *domain.RawDocument, opts driving.IngestOptions) (*domain.DocumentRecord, error) {
	m.opts = opts
	return m.record, m.err
}

func (m *mockIngest) IngestURI(_ context.Context, uri string, opts driving.IngestOptions) (*domain.DocumentRecord, error) {
	m.uris = append(m.uris, uri)
	m.opts = opts
	return m.record, m.err
}

func (m *mockIngest) ClassifyURI(_ context.Context, uri string) (domain.Category, error) {
	m.uris = append(m.uris, uri)
	return m.category, m.err
}

func (m *mockIngest) Forget(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

type mockCorpus struct {
	result     *driving.AskResult
	results    []driving.SearchResult
	err        error
	question   string
	opts       driving.AskOptions
	searchOpts driving.SearchOptions
}

func (m *mockCorpus) Ask(_ context.Context, question string, opts driving.AskOptions) (*driving.AskResult, error) {
	m.question = question
	m.opts = opts
	return m.result, m.err
}

func (m *mockCorpus) Search(_ context.Context, query string, opts driving.SearchOptions) ([]driving.SearchResult, error) {
	m.question = query
	m.searchOpts = opts
	return m.results, m.err
}

func (m *mockCorpus) Reindex(_ context.Context) error {
	return m.err
}

type mockDocuments struct {
	records []domain.DocumentRecord
	err     error
	deleted []string
}

func (m *mockDocuments) List(_ context.Context) ([]domain.DocumentRecord, error) {
	return m.records, m.err
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.DocumentRecord, error) {
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

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}
