package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/doctag/internal/chunker"
	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
	"github.com/custodia-labs/doctag/internal/logger"
)

// Ensure AnswerEngine and AnswerSession implement the interfaces.
var (
	_ driving.AnswerService   = (*AnswerEngine)(nil)
	_ driving.AnswerService   = (*AnswerSession)(nil)
	_ driven.PromptStoreAware = (*AnswerEngine)(nil)
)

// AnswerEngine answers questions from a corpus by retrieval-augmented generation:
// chunk, embed, index, retrieve, prompt, answer.
type AnswerEngine struct {
	promptLoader
	embedder driven.Embedder
	llm      driven.LanguageModel
	newIndex driven.VectorIndexFactory
	chunker  *chunker.Chunker
	topK     int
	fanOut   int
}

// NewAnswerEngine creates an engine. Configuration is validated here rather
// than per call; invalid chunking or retrieval values fail with domain.ErrConfiguration.
func NewAnswerEngine(
	embedder driven.Embedder,
	llm driven.LanguageModel,
	newIndex driven.VectorIndexFactory,
	cfg domain.RetrievalSettings,
) (*AnswerEngine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: answer engine requires an embedder", domain.ErrEmbeddingUnavailable)
	}
	if llm == nil {
		return nil, fmt.Errorf("%w: answer engine requires a language model", domain.ErrLLMUnavailable)
	}
	if newIndex == nil {
		return nil, fmt.Errorf("%w: answer engine requires a vector index factory", domain.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if embedder.Dimensions() <= 0 {
		return nil, fmt.Errorf("%w: embedder %s reports dimension %d",
			domain.ErrConfiguration, embedder.ModelName(), embedder.Dimensions())
	}

	c, err := chunker.New(chunker.WithChunkSize(cfg.ChunkSize), chunker.WithOverlap(cfg.Overlap))
	if err != nil {
		return nil, err
	}

	return &AnswerEngine{
		embedder: embedder,
		llm:      llm,
		newIndex: newIndex,
		chunker:  c,
		topK:     cfg.TopK,
		fanOut:   cfg.FanOut,
	}, nil
}

// NewSession creates a session with its own vector index. Documents indexed
// by a session are not re-embedded on later questions in the same session.
// A persistent index that lists its documents seeds that memo.
func (e *AnswerEngine) NewSession(ctx context.Context) (*AnswerSession, error) {
	index, err := e.newIndex(e.embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	if index.Dimensions() != e.embedder.Dimensions() {
		_ = index.Close()
		return nil, fmt.Errorf("%w: index dimension %d does not match embedder %s dimension %d",
			domain.ErrConfiguration, index.Dimensions(), e.embedder.ModelName(), e.embedder.Dimensions())
	}

	session := &AnswerSession{
		engine:  e,
		index:   index,
		indexed: make(map[string]bool),
	}

	if lister, ok := index.(driven.IndexedDocumentLister); ok {
		ids, err := lister.IndexedDocuments(ctx)
		if err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("list indexed documents: %w", err)
		}
		for _, id := range ids {
			session.indexed[id] = true
		}
		logger.Debug("Session seeded with %d previously indexed documents", len(ids))
	}

	return session, nil
}

// Answer runs a one-shot session over corpus.
func (e *AnswerEngine) Answer(ctx context.Context, query string, corpus []domain.Document) (*domain.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrValidation)
	}
	if len(corpus) == 0 {
		logger.Debug("Empty corpus, returning fallback answer")
		return fallbackResult(), nil
	}

	session, err := e.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return session.Answer(ctx, query, corpus)
}

// AnswerSession holds a session-scoped vector index. It is safe for concurrent
// use: ingestion is serialised, queries read the index concurrently.
type AnswerSession struct {
	engine *AnswerEngine
	index  driven.VectorIndex

	mu      sync.Mutex
	indexed map[string]bool
}

// Answer answers query from corpus with the configured top-k.
func (s *AnswerSession) Answer(ctx context.Context, query string, corpus []domain.Document) (*domain.QueryResult, error) {
	return s.AnswerTopK(ctx, query, corpus, 0)
}

// AnswerTopK answers query from corpus retrieving topK chunks. Zero or
// negative topK uses the configured default.
func (s *AnswerSession) AnswerTopK(
	ctx context.Context, query string, corpus []domain.Document, topK int,
) (*domain.QueryResult, error) {
	logger.Section("Answer")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrValidation)
	}
	if topK <= 0 {
		topK = s.engine.topK
	}
	if len(corpus) == 0 {
		logger.Debug("Empty corpus, returning fallback answer")
		return fallbackResult(), nil
	}

	if err := s.ingest(ctx, corpus); err != nil {
		return nil, err
	}
	if s.index.Len() == 0 {
		logger.Debug("Corpus has no indexable text, returning fallback answer")
		return fallbackResult(), nil
	}

	retrieved, err := s.retrieve(ctx, query, corpus, topK)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		logger.Debug("No chunks retrieved for corpus, returning fallback answer")
		return fallbackResult(), nil
	}

	template := s.engine.load(driven.PromptAnswer, defaultAnswerPrompt)
	prompt := buildAnswerPrompt(template, retrieved, query)

	start := time.Now()
	answer, err := s.engine.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		logger.Warn("Answer generation failed: %v", err)
		return nil, asKind(domain.ErrLanguageModelService, err)
	}
	logger.Elapsed("generate answer", start)

	return &domain.QueryResult{
		AnswerText:      answer,
		RetrievedChunks: retrieved,
	}, nil
}

// Retrieve indexes corpus and returns its topK chunks most similar to query
// without calling the language model. Zero or negative topK uses the
// configured default.
func (s *AnswerSession) Retrieve(
	ctx context.Context, query string, corpus []domain.Document, topK int,
) ([]domain.RetrievedChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}
	if topK <= 0 {
		topK = s.engine.topK
	}
	if len(corpus) == 0 {
		return []domain.RetrievedChunk{}, nil
	}
	if err := s.ingest(ctx, corpus); err != nil {
		return nil, err
	}
	if s.index.Len() == 0 {
		return []domain.RetrievedChunk{}, nil
	}
	return s.retrieve(ctx, query, corpus, topK)
}

// Reset empties the session index and forgets which documents it holds.
func (s *AnswerSession) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	s.indexed = make(map[string]bool)
	return nil
}

// Len returns the number of entries in the session index.
func (s *AnswerSession) Len() int {
	return s.index.Len()
}

// Close releases the session index.
func (s *AnswerSession) Close() error {
	return s.index.Close()
}

// ingest chunks and embeds every corpus document not yet indexed. Embedding
// calls fan out up to the configured limit; entries are added per document in
// corpus then chunk order. On any failure nothing from this call is added.
func (s *AnswerSession) ingest(ctx context.Context, corpus []domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		pending []domain.Document
		chunks  [][]domain.Chunk
		seen    = make(map[string]bool)
	)
	for _, doc := range corpus {
		if s.indexed[doc.ID] || seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		pending = append(pending, doc)
		chunks = append(chunks, s.engine.chunker.Split(doc.ID, doc.Text))
	}
	if len(pending) == 0 {
		logger.Debug("All %d documents already indexed", len(corpus))
		return nil
	}

	vectors := make([][][]float64, len(chunks))
	total := 0
	for i := range chunks {
		vectors[i] = make([][]float64, len(chunks[i]))
		total += len(chunks[i])
	}
	logger.Debug("Embedding %d chunks from %d documents (fan-out %d)", total, len(pending), s.engine.fanOut)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.engine.fanOut)
	for d := range chunks {
		for c := range chunks[d] {
			g.Go(func() error {
				vec, err := s.engine.embedder.Embed(gctx, chunks[d][c].Text)
				if err != nil {
					return asKind(domain.ErrEmbeddingService, err)
				}
				vectors[d][c] = vec
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		logger.Warn("Embedding failed: %v", err)
		return err
	}
	logger.Elapsed("embed chunks", start)

	entries := make([][]domain.IndexEntry, len(pending))
	for d := range chunks {
		entries[d] = make([]domain.IndexEntry, len(chunks[d]))
		for c, chunk := range chunks[d] {
			entries[d][c] = domain.IndexEntry{Chunk: chunk, Vector: vectors[d][c]}
		}
	}

	// Validate every batch before adding any, so a mismatch in a later
	// document leaves earlier ones unadded as well.
	dims := s.index.Dimensions()
	for d := range entries {
		for _, entry := range entries[d] {
			if len(entry.Vector) != dims {
				return fmt.Errorf("%w: embedder returned dimension %d for %s, index expects %d",
					domain.ErrConfiguration, len(entry.Vector), entry.Chunk.ID(), dims)
			}
		}
	}

	for d, doc := range pending {
		if err := s.index.Add(ctx, entries[d]); err != nil {
			return fmt.Errorf("index document %s: %w", doc.ID, err)
		}
		s.indexed[doc.ID] = true
	}
	logger.Debug("Index holds %d entries", s.index.Len())
	return nil
}

// retrieve embeds query and returns the topK chunks belonging to corpus.
// When the index holds other documents the query widens until enough
// in-corpus hits are found or the index is exhausted.
func (s *AnswerSession) retrieve(
	ctx context.Context, query string, corpus []domain.Document, topK int,
) ([]domain.RetrievedChunk, error) {
	vec, err := s.engine.embedder.Embed(ctx, query)
	if err != nil {
		return nil, asKind(domain.ErrEmbeddingService, err)
	}
	if len(vec) != s.index.Dimensions() {
		return nil, fmt.Errorf("%w: query embedding has dimension %d, index expects %d",
			domain.ErrConfiguration, len(vec), s.index.Dimensions())
	}

	scope := make(map[string]bool, len(corpus))
	for _, doc := range corpus {
		scope[doc.ID] = true
	}

	k := topK
	for {
		hits, err := s.index.Query(ctx, vec, k)
		if err != nil {
			if errors.Is(err, domain.ErrConfiguration) || errors.Is(err, domain.ErrValidation) {
				return nil, err
			}
			return nil, fmt.Errorf("query index: %w", err)
		}

		retrieved := make([]domain.RetrievedChunk, 0, topK)
		for _, hit := range hits {
			if !scope[hit.Entry.Chunk.DocumentID] {
				continue
			}
			retrieved = append(retrieved, domain.RetrievedChunk{Chunk: hit.Entry.Chunk, Score: hit.Score})
			if len(retrieved) == topK {
				break
			}
		}

		if len(retrieved) == topK || len(hits) < k || k >= s.index.Len() {
			for i, r := range retrieved {
				logger.Debug("  #%d %s score=%.4f", i+1, r.Chunk.ID(), r.Score)
			}
			return retrieved, nil
		}
		k *= 2
	}
}

func fallbackResult() *domain.QueryResult {
	return &domain.QueryResult{
		AnswerText:      domain.FallbackAnswer,
		RetrievedChunks: []domain.RetrievedChunk{},
	}
}
