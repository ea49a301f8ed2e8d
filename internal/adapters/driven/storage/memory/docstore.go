package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu      sync.RWMutex
	records map[string]stored
	seq     int
}

// stored keeps the insertion sequence so List can break CreatedAt ties.
type stored struct {
	record domain.DocumentRecord
	seq    int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		records: make(map[string]stored),
	}
}

// Save stores or updates a document record. Updates keep the original position in List.
func (s *DocumentStore) Save(_ context.Context, record *domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.seq
	if existing, ok := s.records[record.ID]; ok {
		seq = existing.seq
	} else {
		s.seq++
	}
	s.records[record.ID] = stored{record: copyRecord(*record), seq: seq}
	return nil
}

// Get retrieves a record by ID.
func (s *DocumentStore) Get(_ context.Context, id string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	record := copyRecord(entry.record)
	return &record, nil
}

// List returns all records, oldest first.
func (s *DocumentStore) List(_ context.Context) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]stored, 0, len(s.records))
	for _, entry := range s.records {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.record.CreatedAt.Equal(b.record.CreatedAt) {
			return a.record.CreatedAt.Before(b.record.CreatedAt)
		}
		return a.seq < b.seq
	})

	result := make([]domain.DocumentRecord, len(entries))
	for i, entry := range entries {
		result[i] = copyRecord(entry.record)
	}
	return result, nil
}

// Delete removes a record.
func (s *DocumentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// Close is a no-op for the memory store.
func (s *DocumentStore) Close() error {
	return nil
}

func copyRecord(r domain.DocumentRecord) domain.DocumentRecord {
	if r.Details != nil {
		d := domain.DocumentDetails{
			Dates:   append([]string(nil), r.Details.Dates...),
			Amounts: append([]string(nil), r.Details.Amounts...),
			Names:   append([]string(nil), r.Details.Names...),
		}
		r.Details = &d
	}
	if r.Semantics != nil {
		sem := domain.DocumentSemantics{
			Topics:        append([]string(nil), r.Semantics.Topics...),
			Entities:      append([]string(nil), r.Semantics.Entities...),
			Sentiment:     r.Semantics.Sentiment,
			Relationships: append([]string(nil), r.Semantics.Relationships...),
		}
		r.Semantics = &sem
	}
	return r
}
