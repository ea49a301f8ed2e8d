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

// Ensure SemanticsService implements the interfaces.
var (
	_ driving.SemanticsService = (*SemanticsService)(nil)
	_ driven.PromptStoreAware  = (*SemanticsService)(nil)
)

// SemanticsService analyses topics, entities, sentiment and relationships in document text.
type SemanticsService struct {
	promptLoader
	llm driven.LanguageModel
}

// NewSemanticsService creates a semantics service.
func NewSemanticsService(llm driven.LanguageModel) (*SemanticsService, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: semantic analysis requires a language model", domain.ErrLLMUnavailable)
	}
	return &SemanticsService{llm: llm}, nil
}

// Analyze asks the model for a JSON object and decodes it strictly.
func (s *SemanticsService) Analyze(ctx context.Context, text string) (*domain.DocumentSemantics, error) {
	logger.Section("Analyze Semantics")

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document text is empty", domain.ErrValidation)
	}

	template := s.load(driven.PromptAnalyzeSemantics, defaultAnalyzeSemanticsPrompt)
	response, err := s.llm.Generate(ctx, fmt.Sprintf(template, text), driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return nil, asKind(domain.ErrLanguageModelService, err)
	}

	semantics, err := parseSemantics(response)
	if err != nil {
		logger.Warn("Semantics response could not be parsed: %v", err)
		return nil, err
	}
	logger.Debug("Found %d topics, %d entities, %d relationships, sentiment %s",
		len(semantics.Topics), len(semantics.Entities), len(semantics.Relationships), semantics.Sentiment)
	return semantics, nil
}

// parseSemantics decodes a semantics JSON object, rejecting unknown keys,
// trailing data and sentiments outside the known set.
func parseSemantics(response string) (*domain.DocumentSemantics, error) {
	body := stripCodeFence(strings.TrimSpace(response))
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("%w: response is not a JSON object", domain.ErrSemanticsParse)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()

	var semantics domain.DocumentSemantics
	if err := dec.Decode(&semantics); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSemanticsParse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", domain.ErrSemanticsParse)
	}

	semantics.Sentiment = strings.ToLower(strings.TrimSpace(semantics.Sentiment))
	switch semantics.Sentiment {
	case domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral, domain.SentimentMixed:
	default:
		return nil, fmt.Errorf("%w: unknown sentiment %q", domain.ErrSemanticsParse, semantics.Sentiment)
	}
	return &semantics, nil
}
