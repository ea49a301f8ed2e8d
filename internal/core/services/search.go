package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
	"github.com/custodia-labs/doctag/internal/logger"
)

const (
	// defaultSearchLimit is the number of documents a search returns by default.
	defaultSearchLimit = 5

	// excerptLength is the maximum excerpt size in runes.
	excerptLength = 200

	// maxHighlights caps the highlighted sentences per result.
	maxHighlights = 3
)

// Search embeds query and returns the stored documents whose chunks are most
// similar, one result per document scored by its best chunk.
func (s *CorpusService) Search(
	ctx context.Context, query string, opts driving.SearchOptions,
) ([]driving.SearchResult, error) {
	logger.Section("Search")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrValidation)
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative, got %d", domain.ErrValidation, opts.Limit)
	}
	limit := opts.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}

	s.active.RLock()
	defer s.active.RUnlock()

	records, err := s.load(ctx, opts.DocumentID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []driving.SearchResult{}, nil
	}

	corpus := make([]domain.Document, len(records))
	byID := make(map[string]*domain.DocumentRecord, len(records))
	for i := range records {
		corpus[i] = records[i].Document()
		byID[records[i].ID] = &records[i]
	}

	session, err := s.getSession(ctx)
	if err != nil {
		return nil, err
	}

	// Several chunks of one document can outrank the next document, so ask
	// for more chunks than documents.
	chunks, err := session.Retrieve(ctx, query, corpus, limit*3)
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, err
	}
	logger.Debug("Retrieved %d chunks", len(chunks))

	results := hydrateResults(chunks, byID, query)
	if len(results) > limit {
		results = results[:limit]
	}
	logger.Info("Search returned %d documents", len(results))
	return results, nil
}

// hydrateResults keeps the best chunk of each document and attaches the
// stored record's metadata. Results are ordered by score, ties by first hit.
func hydrateResults(
	chunks []domain.RetrievedChunk, records map[string]*domain.DocumentRecord, query string,
) []driving.SearchResult {
	results := make([]driving.SearchResult, 0, len(chunks))
	seen := make(map[string]bool)
	for _, rc := range chunks {
		id := rc.Chunk.DocumentID
		if seen[id] {
			continue
		}
		record, ok := records[id]
		if !ok {
			continue
		}
		seen[id] = true
		results = append(results, driving.SearchResult{
			DocumentID: id,
			SourceURI:  record.SourceURI,
			Category:   record.Category,
			Format:     record.Format,
			Score:      rc.Score,
			Excerpt:    excerpt(rc.Chunk.Text),
			Highlights: generateHighlights(rc.Chunk.Text, query),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// excerpt trims text to excerptLength runes.
func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}
	return string([]rune(text)[:excerptLength]) + "..."
}

// generateHighlights returns up to maxHighlights sentences of content that
// contain any query term, case-insensitively.
func generateHighlights(content, query string) []string {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var highlights []string
	for _, sentence := range splitSentences(content) {
		lower := strings.ToLower(sentence)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				highlights = append(highlights, excerpt(sentence))
				break
			}
		}
		if len(highlights) == maxHighlights {
			break
		}
	}
	return highlights
}

// splitSentences splits content at sentence terminators and newlines.
func splitSentences(content string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			flush()
		}
	}
	flush()
	return sentences
}
