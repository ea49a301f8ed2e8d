package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
	"github.com/custodia-labs/doctag/internal/logger"
)

// Ensure DetailsService implements the interfaces.
var (
	_ driving.DetailsService  = (*DetailsService)(nil)
	_ driven.PromptStoreAware = (*DetailsService)(nil)
)

// DetailsService extracts key entities (dates, amounts, names) from document text.
type DetailsService struct {
	promptLoader
	llm driven.LanguageModel
}

// NewDetailsService creates a details service.
func NewDetailsService(llm driven.LanguageModel) (*DetailsService, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: details extraction requires a language model", domain.ErrLLMUnavailable)
	}
	return &DetailsService{llm: llm}, nil
}

// Extract asks the model for a JSON object and decodes it strictly.
// A response wrapped in a markdown code fence is accepted.
func (s *DetailsService) Extract(ctx context.Context, text string) (*domain.DocumentDetails, error) {
	logger.Section("Extract Details")

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document text is empty", domain.ErrValidation)
	}

	template := s.load(driven.PromptExtractDetails, defaultExtractDetailsPrompt)
	response, err := s.llm.Generate(ctx, fmt.Sprintf(template, text), driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return nil, asKind(domain.ErrLanguageModelService, err)
	}

	details, err := parseDetails(response)
	if err != nil {
		logger.Warn("Details response could not be parsed: %v", err)
		return nil, err
	}
	logger.Debug("Extracted %d dates, %d amounts, %d names",
		len(details.Dates), len(details.Amounts), len(details.Names))
	return details, nil
}

// parseDetails decodes a details JSON object, rejecting unknown keys and trailing data.
func parseDetails(response string) (*domain.DocumentDetails, error) {
	body := stripCodeFence(strings.TrimSpace(response))
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("%w: response is not a JSON object", domain.ErrDetailsParse)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()

	var details domain.DocumentDetails
	if err := dec.Decode(&details); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDetailsParse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", domain.ErrDetailsParse)
	}
	return &details, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}
