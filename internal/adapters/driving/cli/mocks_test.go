package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

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
	mu        sync.Mutex
	fail      map[string]error
	ingested  []string
	forgotten []string
	classify  domain.Category
	opts      driving.IngestOptions
}

func (m *mockIngest) Ingest(_ context.Context, raw *domain.RawDocument, opts driving.IngestOptions) (*domain.DocumentRecord, error) {
	return m.record(raw.SourceURI, opts)
}

func (m *mockIngest) IngestURI(_ context.Context, uri string, opts driving.IngestOptions) (*domain.DocumentRecord, error) {
	return m.record(uri, opts)
}

func (m *mockIngest) ClassifyURI(_ context.Context, uri string) (domain.Category, error) {
	if err := m.fail[uri]; err != nil {
		return domain.Category{}, err
	}
	return m.classify, nil
}

func (m *mockIngest) Forget(_ context.Context, uri string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgotten = append(m.forgotten, uri)
	return 1, nil
}

func (m *mockIngest) record(uri string, opts driving.IngestOptions) (*domain.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = opts
	if err := m.fail[uri]; err != nil {
		return nil, err
	}
	m.ingested = append(m.ingested, uri)
	return &domain.DocumentRecord{
		ID:        fmt.Sprintf("doc-%d", len(m.ingested)),
		SourceURI: uri,
		Category:  domain.CategoryInvoice,
	}, nil
}

func (m *mockIngest) ingestedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.ingested))
	for i, uri := range m.ingested {
		names[i] = filepath.Base(uri)
	}
	return names
}

type mockCorpus struct {
	result     *driving.AskResult
	results    []driving.SearchResult
	err        error
	question   string
	opts       driving.AskOptions
	searchOpts driving.SearchOptions
	reindexed  int
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
	m.reindexed++
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
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
}

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	if _, err := m.Get(context.Background(), id); err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockSettings struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	provider    domain.AIProvider
	model       string
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettings) SetEmbeddingProvider(provider domain.AIProvider, model string) error {
	m.provider, m.model = provider, model
	if m.setErr == nil {
		m.settings.Embedding.Provider, m.settings.Embedding.Model = provider, model
	}
	return m.setErr
}

func (m *mockSettings) SetLLMProvider(provider domain.AIProvider, model string) error {
	m.provider, m.model = provider, model
	if m.setErr == nil {
		m.settings.LLM.Provider, m.settings.LLM.Model = provider, model
	}
	return m.setErr
}

func (m *mockSettings) Validate() error {
	return m.validateErr
}

func (m *mockSettings) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	classifier *mockClassifier
	ingest     *mockIngest
	corpus     *mockCorpus
	documents  *mockDocuments
	settings   *mockSettings
}

func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		classifier: &mockClassifier{category: domain.Category{Name: domain.CategoryInvoice}},
		ingest:     &mockIngest{fail: map[string]error{}, classify: domain.Category{Name: domain.CategoryContract}},
		corpus: &mockCorpus{result: &driving.AskResult{
			Answer: "Payment is due 2024-01-31.",
			Sources: []driving.Source{
				{DocumentID: "doc-1", SourceURI: "/docs/invoice.pdf", Excerpt: "Due date: 2024-01-31", Score: 0.87},
			},
		}, results: []driving.SearchResult{
			{
				DocumentID: "doc-1",
				SourceURI:  "/docs/invoice.pdf",
				Category:   domain.CategoryInvoice,
				Format:     domain.FormatPDF,
				Score:      0.91,
				Excerpt:    "Invoice #42 due 2024-01-31",
			},
		}},
		documents: &mockDocuments{records: []domain.DocumentRecord{
			{
				ID:        "doc-1",
				SourceURI: "/docs/invoice.pdf",
				Format:    domain.FormatPDF,
				Category:  domain.CategoryInvoice,
				Details:   &domain.DocumentDetails{Dates: []string{"2024-01-31"}, Amounts: []string{"$300"}},
				Text:      "Invoice #42",
				CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			},
		}},
		settings: &mockSettings{settings: domain.DefaultAppSettings()},
	}

	SetServices(&Services{
		Classifier: ts.classifier,
		Ingest:     ts.ingest,
		Corpus:     ts.corpus,
		Documents:  ts.documents,
		Settings:   ts.settings,
	})

	return ts, func() {
		SetServices(&Services{})
		resetFlags()
	}
}

func resetFlags() {
	classifyText = false
	ingestDetails = false
	ingestSemantics = false
	ingestWatch = false
	askDocument = ""
	askTopK = 0
	askJSON = false
	searchDocument = ""
	searchLimit = 5
	searchJSON = false
	showText = false
	verbose = false
	configDir = ""
}
