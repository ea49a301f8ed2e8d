package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LanguageModel for testing.
type mockLLM struct {
	mu        sync.Mutex
	response  string
	respond   func(prompt string) (string, error)
	err       error
	prompts   []string
	options   []driven.GenerateOptions
	callCount int
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, opts)
	if m.err != nil {
		return "", m.err
	}
	if m.respond != nil {
		return m.respond(prompt)
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string {
	return "mock-llm"
}

func (m *mockLLM) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLM) Close() error {
	return nil
}

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// keywordEmbedder implements driven.Embedder for testing. Each dimension
// counts occurrences of one keyword, so similarity follows shared vocabulary.
type keywordEmbedder struct {
	keywords []string
	dims     int // reported dimension; zero means len(keywords)
	err      error
	failOn   string
	calls    atomic.Int64
}

func newKeywordEmbedder(keywords ...string) *keywordEmbedder {
	return &keywordEmbedder{keywords: keywords}
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.err != nil {
		return nil, e.err
	}
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, errors.New("provider exploded")
	}
	lower := strings.ToLower(text)
	vec := make([]float64, len(e.keywords))
	for i, k := range e.keywords {
		vec[i] = float64(strings.Count(lower, k))
	}
	return vec, nil
}

func (e *keywordEmbedder) Dimensions() int {
	if e.dims > 0 {
		return e.dims
	}
	return len(e.keywords)
}

func (e *keywordEmbedder) ModelName() string {
	return "keyword-embedder"
}

func (e *keywordEmbedder) Close() error {
	return nil
}

func (e *keywordEmbedder) callCount() int {
	return int(e.calls.Load())
}

// mockExtractor implements driven.TextExtractor for testing.
type mockExtractor struct {
	format domain.Format
	text   string
	err    error
	calls  int
}

func (m *mockExtractor) Format() domain.Format {
	return m.format
}

func (m *mockExtractor) Extract(_ context.Context, content []byte) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if m.text != "" {
		return m.text, nil
	}
	return string(content), nil
}

// mockFetcher implements driven.Fetcher for testing.
type mockFetcher struct {
	docs map[string]*domain.RawDocument
	err  error
}

func (m *mockFetcher) Fetch(_ context.Context, uri string) (*domain.RawDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	doc, ok := m.docs[uri]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

// mockClassifier implements driving.ClassifierService for testing.
type mockClassifier struct {
	category domain.Category
	err      error
	texts    []string
}

func (m *mockClassifier) Classify(_ context.Context, text string, _ domain.Taxonomy) (domain.Category, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.Category{}, m.err
	}
	return m.category, nil
}

// mockDetails implements driving.DetailsService for testing.
type mockDetails struct {
	details *domain.DocumentDetails
	err     error
}

func (m *mockDetails) Extract(_ context.Context, _ string) (*domain.DocumentDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.details, nil
}

// mockSemantics implements driving.SemanticsService for testing.
type mockSemantics struct {
	semantics *domain.DocumentSemantics
	err       error
	calls     int
}

func (m *mockSemantics) Analyze(_ context.Context, _ string) (*domain.DocumentSemantics, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.semantics, nil
}

// listingIndex wraps a VectorIndex and reports pre-existing documents.
type listingIndex struct {
	driven.VectorIndex
	ids []string
	err error
}

func (l *listingIndex) IndexedDocuments(_ context.Context) ([]string, error) {
	return l.ids, l.err
}

// fixedDimsIndex reports a dimension different from the one it was built with.
type fixedDimsIndex struct {
	driven.VectorIndex
	dims   int
	closed bool
}

func (f *fixedDimsIndex) Dimensions() int {
	return f.dims
}

func (f *fixedDimsIndex) Close() error {
	f.closed = true
	return nil
}
