package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/logger"
)

// ExtractorRegistry dispatches text extraction to the extractor registered for a format.
type ExtractorRegistry struct {
	mu         sync.RWMutex
	extractors map[domain.Format]driven.TextExtractor
}

// NewExtractorRegistry creates a registry holding the given extractors.
func NewExtractorRegistry(extractors ...driven.TextExtractor) *ExtractorRegistry {
	r := &ExtractorRegistry{extractors: make(map[domain.Format]driven.TextExtractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds or replaces the extractor for its format.
func (r *ExtractorRegistry) Register(extractor driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[extractor.Format()] = extractor
}

// Supports returns true if an extractor is registered for format.
func (r *ExtractorRegistry) Supports(format domain.Format) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extractors[format]
	return ok
}

// Extract returns the text of content. An unregistered format fails with
// domain.ErrUnsupportedFormat without calling any extractor.
func (r *ExtractorRegistry) Extract(ctx context.Context, format domain.Format, content []byte) (string, error) {
	r.mu.RLock()
	extractor, ok := r.extractors[format]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}

	logger.Debug("Extracting %d bytes of %s", len(content), format)
	text, err := extractor.Extract(ctx, content)
	if err != nil {
		return "", asKind(domain.ErrExtraction, err)
	}
	return text, nil
}
