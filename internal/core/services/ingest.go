package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
	"github.com/custodia-labs/doctag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// mimeFormats maps content types to formats for URLs without a usable extension.
var mimeFormats = map[string]domain.Format{
	"application/pdf": domain.FormatPDF,
	"text/plain":      domain.FormatTXT,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.FormatDOCX,
}

// IngestService fetches, extracts, classifies and stores documents.
type IngestService struct {
	fetcher    driven.Fetcher
	extractors *ExtractorRegistry
	classifier driving.ClassifierService
	details    driving.DetailsService
	semantics  driving.SemanticsService
	store      driven.DocumentStore
	newID      func() string
	now        func() time.Time
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithDetailsService enables key detail extraction for IngestOptions.Details.
func WithDetailsService(details driving.DetailsService) IngestOption {
	return func(s *IngestService) {
		s.details = details
	}
}

// WithSemanticsService enables semantic analysis for IngestOptions.Semantics.
func WithSemanticsService(semantics driving.SemanticsService) IngestOption {
	return func(s *IngestService) {
		s.semantics = semantics
	}
}

// WithIDGenerator overrides the document ID generator (default: random UUID).
func WithIDGenerator(newID func() string) IngestOption {
	return func(s *IngestService) {
		s.newID = newID
	}
}

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) IngestOption {
	return func(s *IngestService) {
		s.now = now
	}
}

// NewIngestService creates an ingest service.
func NewIngestService(
	fetcher driven.Fetcher,
	extractors *ExtractorRegistry,
	classifier driving.ClassifierService,
	store driven.DocumentStore,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		fetcher:    fetcher,
		extractors: extractors,
		classifier: classifier,
		store:      store,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest extracts, classifies and stores raw. A record already stored for the
// same source URI is replaced.
func (s *IngestService) Ingest(
	ctx context.Context, raw *domain.RawDocument, opts driving.IngestOptions,
) (*domain.DocumentRecord, error) {
	logger.Section("Ingest")

	if opts.Details && s.details == nil {
		return nil, fmt.Errorf("%w: detail extraction is not configured", domain.ErrLLMUnavailable)
	}
	if opts.Semantics && s.semantics == nil {
		return nil, fmt.Errorf("%w: semantic analysis is not configured", domain.ErrLLMUnavailable)
	}

	doc, err := s.extract(ctx, raw)
	if err != nil {
		return nil, err
	}

	category, err := s.classifier.Classify(ctx, doc.Text, nil)
	if err != nil {
		return nil, err
	}

	record := &domain.DocumentRecord{
		ID:        s.newID(),
		SourceURI: raw.SourceURI,
		Format:    doc.Format,
		Category:  category.Name,
		Text:      doc.Text,
		CreatedAt: s.now(),
	}

	if opts.Details {
		details, err := s.details.Extract(ctx, doc.Text)
		if err != nil {
			return nil, err
		}
		record.Details = details
	}
	if opts.Semantics {
		semantics, err := s.semantics.Analyze(ctx, doc.Text)
		if err != nil {
			return nil, err
		}
		record.Semantics = semantics
	}

	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if _, err := s.removeBySource(ctx, raw.SourceURI, record.ID); err != nil {
		return nil, err
	}

	logger.Info("Stored %s as %s (%s)", raw.SourceURI, record.ID, record.Category)
	return record, nil
}

// IngestURI fetches uri and ingests it.
func (s *IngestService) IngestURI(
	ctx context.Context, uri string, opts driving.IngestOptions,
) (*domain.DocumentRecord, error) {
	raw, err := s.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, raw, opts)
}

// ClassifyURI fetches, extracts and classifies uri without storing it.
func (s *IngestService) ClassifyURI(ctx context.Context, uri string) (domain.Category, error) {
	raw, err := s.fetch(ctx, uri)
	if err != nil {
		return domain.Category{}, err
	}
	doc, err := s.extract(ctx, raw)
	if err != nil {
		return domain.Category{}, err
	}
	return s.classifier.Classify(ctx, doc.Text, nil)
}

func (s *IngestService) fetch(ctx context.Context, uri string) (*domain.RawDocument, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: document location is empty", domain.ErrValidation)
	}
	logger.Debug("Fetching %s", uri)
	raw, err := s.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	return raw, nil
}

// extract resolves the format and extracts text. An unsupported format fails
// before any extractor runs.
func (s *IngestService) extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no document", domain.ErrValidation)
	}
	format, err := resolveFormat(raw)
	if err != nil {
		return nil, err
	}
	if !s.extractors.Supports(format) {
		return nil, fmt.Errorf("%w: no extractor for %q", domain.ErrUnsupportedFormat, format)
	}

	text, err := s.extractors.Extract(ctx, format, raw.Content)
	if err != nil {
		return nil, err
	}
	return &domain.Document{SourceURI: raw.SourceURI, Format: format, Text: text}, nil
}

// Forget deletes every record ingested from uri.
func (s *IngestService) Forget(ctx context.Context, uri string) (int, error) {
	if uri == "" {
		return 0, fmt.Errorf("%w: document location is empty", domain.ErrValidation)
	}
	n, err := s.removeBySource(ctx, uri, "")
	if err != nil {
		return n, err
	}
	if n > 0 {
		logger.Info("Removed %d records for %s", n, uri)
	}
	return n, nil
}

// removeBySource deletes records ingested from uri other than keep.
func (s *IngestService) removeBySource(ctx context.Context, uri, keep string) (int, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	removed := 0
	for _, r := range records {
		if r.SourceURI != uri || r.ID == keep {
			continue
		}
		if err := s.store.Delete(ctx, r.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return removed, fmt.Errorf("delete document %s: %w", r.ID, err)
		}
		removed++
		logger.Debug("Removed record %s for %s", r.ID, uri)
	}
	return removed, nil
}

// resolveFormat uses the declared format, then the URI extension, then the content type.
func resolveFormat(raw *domain.RawDocument) (domain.Format, error) {
	if raw.Format != "" {
		return domain.ParseFormat(string(raw.Format))
	}
	format, err := domain.FormatFromURI(raw.SourceURI)
	if err == nil {
		return format, nil
	}
	if mediaType, _, perr := mime.ParseMediaType(raw.MIMEType); perr == nil {
		if f, ok := mimeFormats[mediaType]; ok {
			return f, nil
		}
	}
	return "", err
}
