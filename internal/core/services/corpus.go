package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
	"github.com/custodia-labs/doctag/internal/logger"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusService = (*CorpusService)(nil)

// CorpusService answers questions against stored documents. It keeps one
// answer session for its lifetime so documents are embedded once.
//
// Ask and Search hold active for reading while they use the session; Close
// and Reindex hold it for writing, so the index is never released or cleared
// under a running query.
type CorpusService struct {
	store  driven.DocumentStore
	engine *AnswerEngine

	active  sync.RWMutex
	mu      sync.Mutex
	session *AnswerSession
}

// NewCorpusService creates a corpus service.
func NewCorpusService(store driven.DocumentStore, engine *AnswerEngine) *CorpusService {
	return &CorpusService{store: store, engine: engine}
}

// Ask answers question from one stored document or every stored document.
func (s *CorpusService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*driving.AskResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrValidation)
	}
	if opts.TopK < 0 {
		return nil, fmt.Errorf("%w: top_k must not be negative, got %d", domain.ErrValidation, opts.TopK)
	}

	s.active.RLock()
	defer s.active.RUnlock()

	records, err := s.load(ctx, opts.DocumentID)
	if err != nil {
		return nil, err
	}
	logger.Debug("Asking over %d stored documents", len(records))

	corpus := make([]domain.Document, len(records))
	uris := make(map[string]string, len(records))
	for i, r := range records {
		corpus[i] = r.Document()
		uris[r.ID] = r.SourceURI
	}

	var result *domain.QueryResult
	if len(corpus) == 0 {
		result = fallbackResult()
	} else {
		session, err := s.getSession(ctx)
		if err != nil {
			return nil, err
		}
		result, err = session.AnswerTopK(ctx, question, corpus, opts.TopK)
		if err != nil {
			return nil, err
		}
	}

	sources := make([]driving.Source, len(result.RetrievedChunks))
	for i, rc := range result.RetrievedChunks {
		sources[i] = driving.Source{
			DocumentID: rc.Chunk.DocumentID,
			SourceURI:  uris[rc.Chunk.DocumentID],
			Excerpt:    rc.Chunk.Text,
			Score:      rc.Score,
		}
	}
	return &driving.AskResult{Answer: result.AnswerText, Sources: sources}, nil
}

// Reindex clears the session index, including entries a persistent index
// kept from earlier runs.
func (s *CorpusService) Reindex(ctx context.Context) error {
	s.active.Lock()
	defer s.active.Unlock()

	session, err := s.getSession(ctx)
	if err != nil {
		return err
	}
	n := session.Len()
	if err := session.Reset(ctx); err != nil {
		return err
	}
	logger.Info("Cleared %d index entries", n)
	return nil
}

// Close waits for running questions and searches, then releases the answer
// session. A later call starts a new session.
func (s *CorpusService) Close() error {
	s.active.Lock()
	defer s.active.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

func (s *CorpusService) load(ctx context.Context, documentID string) ([]domain.DocumentRecord, error) {
	if documentID != "" {
		record, err := s.store.Get(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("get document %s: %w", documentID, err)
		}
		return []domain.DocumentRecord{*record}, nil
	}
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return records, nil
}

func (s *CorpusService) getSession(ctx context.Context) (*AnswerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		session, err := s.engine.NewSession(ctx)
		if err != nil {
			return nil, err
		}
		s.session = session
	}
	return s.session, nil
}
