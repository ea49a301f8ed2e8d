package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/core/ports/driving"
	"github.com/custodia-labs/doctag/internal/logger"
)

// Ensure ClassifierService implements the interfaces.
var (
	_ driving.ClassifierService = (*ClassifierService)(nil)
	_ driven.PromptStoreAware   = (*ClassifierService)(nil)
)

// classifyMaxTokens bounds the label response; category names are short.
const classifyMaxTokens = 32

// ClassifierService assigns one taxonomy category to a document with a single model call.
type ClassifierService struct {
	promptLoader
	llm      driven.LanguageModel
	taxonomy domain.Taxonomy
}

// NewClassifierService creates a classifier using taxonomy as its default.
// Returns domain.ErrConfiguration if llm is nil or taxonomy is invalid.
func NewClassifierService(llm driven.LanguageModel, taxonomy domain.Taxonomy) (*ClassifierService, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: classifier requires a language model", domain.ErrLLMUnavailable)
	}
	if err := taxonomy.Validate(); err != nil {
		return nil, err
	}
	return &ClassifierService{llm: llm, taxonomy: taxonomy}, nil
}

// Taxonomy returns the default taxonomy.
func (s *ClassifierService) Taxonomy() domain.Taxonomy {
	return s.taxonomy
}

// Classify returns the category of text. The model response is trimmed of
// surrounding whitespace and must then equal a category name exactly.
func (s *ClassifierService) Classify(
	ctx context.Context, text string, taxonomy domain.Taxonomy,
) (domain.Category, error) {
	logger.Section("Classify")

	if strings.TrimSpace(text) == "" {
		return domain.Category{}, fmt.Errorf("%w: document text is empty", domain.ErrValidation)
	}
	if taxonomy == nil {
		taxonomy = s.taxonomy
	} else if err := taxonomy.Validate(); err != nil {
		return domain.Category{}, err
	}

	template := s.load(driven.PromptClassify, defaultClassifyPrompt)
	prompt := buildClassifyPrompt(template, taxonomy, text)
	logger.Debug("Classifying %d characters against %d categories with %s",
		len(text), len(taxonomy), s.llm.ModelName())

	response, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   classifyMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		logger.Warn("Classification call failed: %v", err)
		return domain.Category{}, asKind(domain.ErrLanguageModelService, err)
	}

	label := strings.TrimSpace(response)
	category, ok := taxonomy.Lookup(label)
	if !ok {
		logger.Warn("Model returned %q, not a taxonomy label", label)
		return domain.Category{}, fmt.Errorf("%w: %q", domain.ErrClassificationParse, label)
	}

	logger.Info("Category: %s", category.Name)
	return category, nil
}
