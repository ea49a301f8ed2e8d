package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memindex "github.com/custodia-labs/doctag/internal/adapters/driven/vectorindex/memory"
	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
)

var testRetrieval = domain.RetrievalSettings{ChunkSize: 40, Overlap: 0, TopK: 2, FanOut: 3}

func newTestEngine(t *testing.T, embedder driven.Embedder, llm driven.LanguageModel) *AnswerEngine {
	t.Helper()
	engine, err := NewAnswerEngine(embedder, llm, memindex.Factory, testRetrieval)
	require.NoError(t, err)
	return engine
}

func testCorpus() []domain.Document {
	return []domain.Document{
		{ID: "inv", SourceURI: "/docs/inv.txt", Format: domain.FormatTXT, Text: "invoice invoice payment due in 30 days"},
		{ID: "cv", SourceURI: "/docs/cv.txt", Format: domain.FormatTXT, Text: "resume listing skills and experience"},
		{ID: "nda", SourceURI: "/docs/nda.txt", Format: domain.FormatTXT, Text: "contract between parties, confidential"},
	}
}

func TestNewAnswerEngine_Validation(t *testing.T) {
	embedder := newKeywordEmbedder("a")
	llm := &mockLLM{}

	tests := []struct {
		name     string
		embedder driven.Embedder
		llm      driven.LanguageModel
		factory  driven.VectorIndexFactory
		cfg      domain.RetrievalSettings
		wantErr  error
	}{
		{"nil embedder", nil, llm, memindex.Factory, testRetrieval, domain.ErrEmbeddingUnavailable},
		{"nil llm", embedder, nil, memindex.Factory, testRetrieval, domain.ErrLLMUnavailable},
		{"nil factory", embedder, llm, nil, testRetrieval, domain.ErrConfiguration},
		{"overlap equals size", embedder, llm, memindex.Factory,
			domain.RetrievalSettings{ChunkSize: 10, Overlap: 10, TopK: 1, FanOut: 1}, domain.ErrConfiguration},
		{"overlap exceeds size", embedder, llm, memindex.Factory,
			domain.RetrievalSettings{ChunkSize: 10, Overlap: 20, TopK: 1, FanOut: 1}, domain.ErrConfiguration},
		{"zero chunk size", embedder, llm, memindex.Factory,
			domain.RetrievalSettings{ChunkSize: 0, TopK: 1, FanOut: 1}, domain.ErrConfiguration},
		{"zero top k", embedder, llm, memindex.Factory,
			domain.RetrievalSettings{ChunkSize: 10, TopK: 0, FanOut: 1}, domain.ErrConfiguration},
		{"zero fan out", embedder, llm, memindex.Factory,
			domain.RetrievalSettings{ChunkSize: 10, TopK: 1, FanOut: 0}, domain.ErrConfiguration},
		{"embedder without dimension", &keywordEmbedder{}, llm, memindex.Factory, testRetrieval, domain.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnswerEngine(tt.embedder, tt.llm, tt.factory, tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnswerEngine_Answer_EmptyCorpus(t *testing.T) {
	embedder := newKeywordEmbedder("invoice")
	llm := &mockLLM{response: "should not be used"}
	engine := newTestEngine(t, embedder, llm)

	for _, corpus := range [][]domain.Document{nil, {}} {
		result, err := engine.Answer(context.Background(), "What is due?", corpus)

		require.NoError(t, err)
		assert.Equal(t, domain.FallbackAnswer, result.AnswerText)
		assert.NotNil(t, result.RetrievedChunks)
		assert.Empty(t, result.RetrievedChunks)
	}
	assert.Equal(t, 0, embedder.callCount())
	assert.Equal(t, 0, llm.calls())
}

func TestAnswerEngine_Answer_NoIndexableText(t *testing.T) {
	embedder := newKeywordEmbedder("invoice")
	llm := &mockLLM{response: "unused"}
	engine := newTestEngine(t, embedder, llm)

	result, err := engine.Answer(context.Background(), "What is due?", []domain.Document{{ID: "empty", Text: ""}})

	require.NoError(t, err)
	assert.Equal(t, domain.FallbackAnswer, result.AnswerText)
	assert.Empty(t, result.RetrievedChunks)
	assert.Equal(t, 0, embedder.callCount())
	assert.Equal(t, 0, llm.calls())
}

func TestAnswerEngine_Answer_EmptyQuery(t *testing.T) {
	embedder := newKeywordEmbedder("invoice")
	llm := &mockLLM{}
	engine := newTestEngine(t, embedder, llm)

	_, err := engine.Answer(context.Background(), "  ", testCorpus())

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, embedder.callCount())
	assert.Equal(t, 0, llm.calls())
}

func TestAnswerEngine_Answer_RetrievesRelevantChunks(t *testing.T) {
	embedder := newKeywordEmbedder("invoice", "resume", "contract")
	llm := &mockLLM{response: "  Payment is due in 30 days.\n"}
	engine := newTestEngine(t, embedder, llm)

	result, err := engine.Answer(context.Background(), "When is the invoice due?", testCorpus())

	require.NoError(t, err)
	assert.Equal(t, "  Payment is due in 30 days.\n", result.AnswerText, "answer is returned verbatim")
	require.Len(t, result.RetrievedChunks, 2)
	assert.Equal(t, "inv", result.RetrievedChunks[0].Chunk.DocumentID)
	assert.InDelta(t, 1.0, result.RetrievedChunks[0].Score, 1e-9)
	assert.GreaterOrEqual(t, result.RetrievedChunks[0].Score, result.RetrievedChunks[1].Score)

	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, domain.FallbackAnswer)
	assert.Contains(t, prompt, "invoice invoice payment due in 30 days")
	assert.Contains(t, prompt, "Question: When is the invoice due?")
	assert.Equal(t, 1, llm.calls())
}

func TestAnswerSession_MemoizesIndexedDocuments(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder("invoice", "resume", "contract")
	llm := &mockLLM{response: "ok"}
	engine := newTestEngine(t, embedder, llm)

	session, err := engine.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	corpus := testCorpus()
	_, err = session.Answer(ctx, "invoice?", corpus)
	require.NoError(t, err)
	afterFirst := embedder.callCount()
	assert.Equal(t, len(corpus)+1, afterFirst, "one chunk per document plus the query")
	entries := session.Len()

	_, err = session.Answer(ctx, "resume?", corpus)
	require.NoError(t, err)
	assert.Equal(t, afterFirst+1, embedder.callCount(), "only the query is embedded again")
	assert.Equal(t, entries, session.Len())

	// Duplicate IDs inside one corpus are indexed once.
	extra := domain.Document{ID: "extra", Text: "contract addendum"}
	_, err = session.Answer(ctx, "contract?", append(corpus, extra, extra))
	require.NoError(t, err)
	assert.Equal(t, entries+1, session.Len())
}

func TestAnswerSession_ScopesRetrievalToCorpus(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder("invoice", "resume", "contract")
	llm := &mockLLM{response: "ok"}
	engine := newTestEngine(t, embedder, llm)

	session, err := engine.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	_, err = session.Answer(ctx, "anything", testCorpus())
	require.NoError(t, err)

	onlyCV := []domain.Document{testCorpus()[1]}
	result, err := session.AnswerTopK(ctx, "invoice invoice", onlyCV, 3)

	require.NoError(t, err)
	require.NotEmpty(t, result.RetrievedChunks)
	for _, rc := range result.RetrievedChunks {
		assert.Equal(t, "cv", rc.Chunk.DocumentID)
	}
}

func TestAnswerSession_TopKOverride(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder("invoice", "resume", "contract")
	engine := newTestEngine(t, embedder, &mockLLM{response: "ok"})
	session, err := engine.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.AnswerTopK(ctx, "invoice", testCorpus(), 1)
	require.NoError(t, err)
	assert.Len(t, result.RetrievedChunks, 1)

	result, err = session.AnswerTopK(ctx, "invoice", testCorpus(), 0)
	require.NoError(t, err)
	assert.Len(t, result.RetrievedChunks, testRetrieval.TopK)
}

// slowEmbedder finishes later for earlier chunks, reversing completion order.
type slowEmbedder struct {
	*keywordEmbedder
}

func (s *slowEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.HasPrefix(text, "first") {
		time.Sleep(20 * time.Millisecond)
	}
	return s.keywordEmbedder.Embed(ctx, text)
}

func TestAnswerSession_InsertionOrderIndependentOfCompletion(t *testing.T) {
	ctx := context.Background()
	embedder := &slowEmbedder{newKeywordEmbedder("same")}
	engine, err := NewAnswerEngine(embedder, &mockLLM{response: "ok"}, memindex.Factory,
		domain.RetrievalSettings{ChunkSize: 10, Overlap: 0, TopK: 4, FanOut: 4})
	require.NoError(t, err)

	corpus := []domain.Document{
		{ID: "a", Text: "first same"},
		{ID: "b", Text: "second sam" + "same tail"},
	}
	result, err := engine.Answer(ctx, "same", corpus)
	require.NoError(t, err)

	var ids []string
	for _, rc := range result.RetrievedChunks {
		if rc.Score > 0 {
			ids = append(ids, rc.Chunk.ID())
		}
	}
	// All chunks mentioning "same" score 1.0; ties follow corpus then chunk order.
	assert.Equal(t, []string{"a#0", "b#1"}, ids)
}

func TestAnswerEngine_NewSession_DimensionMismatch(t *testing.T) {
	embedder := newKeywordEmbedder("invoice", "resume")
	var built *fixedDimsIndex
	factory := func(d int) (driven.VectorIndex, error) {
		idx, err := memindex.New(d)
		if err != nil {
			return nil, err
		}
		built = &fixedDimsIndex{VectorIndex: idx, dims: d + 1}
		return built, nil
	}
	engine, err := NewAnswerEngine(embedder, &mockLLM{}, factory, testRetrieval)
	require.NoError(t, err)

	_, err = engine.NewSession(context.Background())

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.True(t, built.closed)
}

func TestAnswerSession_EmbedderDimensionMismatchLeavesIndexUnchanged(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder("invoice", "resume", "contract")
	embedder.dims = 4
	llm := &mockLLM{}
	engine := newTestEngine(t, embedder, llm)
	session, err := engine.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	_, err = session.Answer(ctx, "invoice?", testCorpus())

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, 0, session.Len())
	assert.Equal(t, 0, llm.calls())
}

func TestAnswerSession_EmbeddingFailureIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder("invoice", "resume", "contract")
	embedder.failOn = "confidential"
	llm := &mockLLM{}
	engine := newTestEngine(t, embedder, llm)
	session, err := engine.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	_, err = session.Answer(ctx, "invoice?", testCorpus())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Equal(t, 0, session.Len())
	assert.Equal(t, 0, llm.calls())

	// The failed documents are retried on the next question.
	embedder.failOn = ""
	_, err = session.Answer(ctx, "invoice?", testCorpus())
	require.NoError(t, err)
	assert.Equal(t, 3, session.Len())
}

func TestAnswerSession_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		embedErr error
		llmErr   error
		wantKind error
		timeout  bool
	}{
		{"embedding error", errors.New("503"), nil, domain.ErrEmbeddingService, false},
		{"embedding timeout", fmt.Errorf("call: %w", context.DeadlineExceeded), nil, domain.ErrEmbeddingService, true},
		{"model error", nil, errors.New("500"), domain.ErrLanguageModelService, false},
		{"model timeout", nil, context.DeadlineExceeded, domain.ErrLanguageModelService, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := newKeywordEmbedder("invoice", "resume", "contract")
			embedder.err = tt.embedErr
			engine := newTestEngine(t, embedder, &mockLLM{err: tt.llmErr})

			_, err := engine.Answer(context.Background(), "invoice?", testCorpus())

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.timeout, errors.Is(err, domain.ErrTimeout))
		})
	}
}

func TestAnswerEngine_NewSession_SeedsFromPersistentIndex(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder("invoice", "resume", "contract")
	shared, err := memindex.New(3)
	require.NoError(t, err)
	require.NoError(t, shared.Add(ctx, []domain.IndexEntry{{
		Chunk:  domain.Chunk{DocumentID: "inv", Text: "invoice invoice payment due in 30 days", EndOffset: 38},
		Vector: []float64{2, 0, 0},
	}}))

	factory := func(int) (driven.VectorIndex, error) {
		return &listingIndex{VectorIndex: shared, ids: []string{"inv"}}, nil
	}
	engine, err := NewAnswerEngine(embedder, &mockLLM{response: "ok"}, factory, testRetrieval)
	require.NoError(t, err)

	session, err := engine.NewSession(ctx)
	require.NoError(t, err)

	result, err := session.Answer(ctx, "invoice", testCorpus())
	require.NoError(t, err)

	assert.Equal(t, 3, embedder.callCount(), "two new documents plus the query")
	assert.Equal(t, "inv", result.RetrievedChunks[0].Chunk.DocumentID)
}

func TestAnswerEngine_NewSession_ListerError(t *testing.T) {
	factory := func(d int) (driven.VectorIndex, error) {
		idx, _ := memindex.New(d)
		return &listingIndex{VectorIndex: idx, err: errors.New("db down")}, nil
	}
	engine, err := NewAnswerEngine(newKeywordEmbedder("a"), &mockLLM{}, factory, testRetrieval)
	require.NoError(t, err)

	_, err = engine.NewSession(context.Background())

	assert.Error(t, err)
}

func TestAnswerSession_ConcurrentQuestions(t *testing.T) {
	ctx := context.Background()
	embedder := newKeywordEmbedder("invoice", "resume", "contract")
	engine := newTestEngine(t, embedder, &mockLLM{response: "ok"})
	session, err := engine.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := session.Answer(ctx, "invoice?", testCorpus())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 3, session.Len(), "each document is indexed once")
}

func TestAnswerEngine_PromptStore(t *testing.T) {
	llm := &mockLLM{response: "ok"}
	engine := newTestEngine(t, newKeywordEmbedder("invoice"), llm)
	engine.SetPromptStore(&mockPromptStore{prompts: map[string]string{
		driven.PromptAnswer: "FALLBACK=%s CONTEXT=%s Q=%s",
	}})

	_, err := engine.Answer(context.Background(), "invoice?", testCorpus()[:1])
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(llm.lastPrompt(), "FALLBACK="+domain.FallbackAnswer))
	assert.True(t, strings.HasSuffix(llm.lastPrompt(), "Q=invoice?"))
}
