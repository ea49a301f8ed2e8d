package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
	"github.com/custodia-labs/doctag/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService provides access to stored document records.
type DocumentService struct {
	store driven.DocumentStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(store driven.DocumentStore) *DocumentService {
	return &DocumentService{store: store}
}

// List returns all stored records, oldest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return records, nil
}

// Get retrieves a record by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.DocumentRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document id is empty", domain.ErrValidation)
	}
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return record, nil
}

// Delete removes a record.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: document id is empty", domain.ErrValidation)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	logger.Info("Deleted document %s", id)
	return nil
}
