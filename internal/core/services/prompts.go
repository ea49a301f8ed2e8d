package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
)

// defaultClassifyPrompt is the fallback prompt when no PromptStore is configured.
const defaultClassifyPrompt = `Your task is to classify the given document into exactly one of the following categories: [%s].
Base your decision on the smart tags of each category:
[Category: Tags]
%s

Only respond with the category name and nothing else.

Document: %s`

// defaultAnswerPrompt is the fallback prompt when no PromptStore is configured.
const defaultAnswerPrompt = `Answer the question based only on the following context.
If the context does not contain enough information to answer, respond with exactly this sentence and nothing else:
%s

Context:
%s

Question: %s`

// defaultExtractDetailsPrompt is the fallback prompt when no PromptStore is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultExtractDetailsPrompt = `Extract key details from this document. Provide dates (YYYY-MM-DD format), monetary amounts (with currency), and names of people or entities.
Return only a JSON object with the keys "dates", "amounts" and "names", each holding an array of strings.

Document content: %s`

// defaultAnalyzeSemanticsPrompt is the fallback prompt when no PromptStore is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultAnalyzeSemanticsPrompt = `Analyze this document semantically. Identify the main topics, key entities (people, organizations, locations), the overall sentiment, and notable relationships between entities.
Return only a JSON object with the keys "topics", "entities" and "relationships", each holding an array of strings, and "sentiment", one of "positive", "negative", "neutral" or "mixed". Describe each relationship as a short sentence.

Document content: %s`

// promptLoader is embedded by services that accept a PromptStore.
type promptLoader struct {
	store driven.PromptStore
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the service uses hardcoded default prompts.
func (p *promptLoader) SetPromptStore(store driven.PromptStore) {
	p.store = store
}

// load returns the named prompt, falling back to the default if unavailable.
func (p *promptLoader) load(name, fallback string) string {
	if p.store == nil {
		return fallback
	}
	prompt, err := p.store.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

// buildClassifyPrompt fills the classify template with the taxonomy and document.
func buildClassifyPrompt(template string, taxonomy domain.Taxonomy, text string) string {
	lines := make([]string, len(taxonomy))
	for i, c := range taxonomy {
		lines[i] = fmt.Sprintf("%s: %s", c.Name, strings.Join(c.Tags, ", "))
	}
	return fmt.Sprintf(template, strings.Join(taxonomy.Names(), ", "), strings.Join(lines, "\n"), text)
}

// buildAnswerPrompt fills the answer template with numbered context excerpts.
func buildAnswerPrompt(template string, chunks []domain.RetrievedChunk, question string) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, c.Chunk.Text)
	}
	return fmt.Sprintf(template, domain.FallbackAnswer, strings.Join(parts, "\n\n"), question)
}
