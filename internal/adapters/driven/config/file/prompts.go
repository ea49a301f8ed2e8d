package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// DefaultPrompts returns the built-in prompt templates keyed by prompt name.
// They are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptClassify: `Your task is to classify the given document into exactly one of the following categories: [%s].
Base your decision on the smart tags of each category:
[Category: Tags]
%s

Only respond with the category name and nothing else.

Document: %s`,

		driven.PromptAnswer: `Answer the question based only on the following context.
If the context does not contain enough information to answer, respond with exactly this sentence and nothing else:
%s

Context:
%s

Question: %s`,

		driven.PromptExtractDetails: `Extract key details from this document. Provide dates (YYYY-MM-DD format), monetary amounts (with currency), and names of people or entities.
Return only a JSON object with the keys "dates", "amounts" and "names", each holding an array of strings.

Document content: %s`,

		driven.PromptAnalyzeSemantics: `Analyze this document semantically. Identify the main topics, key entities (people, organizations, locations), the overall sentiment, and notable relationships between entities.
Return only a JSON object with the keys "topics", "entities" and "relationships", each holding an array of strings, and "sentiment", one of "positive", "negative", "neutral" or "mixed". Describe each relationship as a short sentence.

Document content: %s`,
	}
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.doctag/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, DefaultDirName, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template for name. The prompt directory is populated with
// the defaults on first use. A file that is missing, unreadable or has a
// different number of %s placeholders than the default yields the default.
func (s *PromptStore) Load(name string) (string, error) {
	defaults := DefaultPrompts()
	fallback, known := defaults[name]

	s.initOnce.Do(func() { s.initialise(defaults) })
	if s.initErr != nil {
		if known {
			return fallback, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	switch {
	case err != nil && !known:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case err != nil:
		prompt = fallback
	case known && placeholders(prompt) != placeholders(fallback):
		logger.Warn("prompt %s: expected %d %%s placeholders, using default",
			name, placeholders(fallback))
		prompt = fallback
	}

	s.mu.Lock()
	s.cache[name] = prompt
	s.mu.Unlock()
	return prompt, nil
}

// placeholders counts %s verbs, ignoring escaped percent signs.
func placeholders(template string) int {
	return strings.Count(strings.ReplaceAll(template, "%%", ""), "%s")
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise(defaults map[string]string) {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Only write files that don't exist yet
	for name, content := range defaults {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# doctag Prompts

This directory contains the prompts doctag sends to the language model.

## Files

- ` + "`classify.txt`" + ` - Picks one taxonomy category for a document
- ` + "`answer.txt`" + ` - Answers a question from retrieved document excerpts
- ` + "`extract_details.txt`" + ` - Extracts dates, amounts and names as JSON
- ` + "`analyze_semantics.txt`" + ` - Extracts topics, entities, sentiment and relationships as JSON

## Customisation

Edit any file to change model behaviour. Changes take effect on the next command.

## Format Placeholders

Every prompt uses Go fmt ` + "`%s`" + ` placeholders, filled in this order:

- classify: category names, category tag lines, document text
- answer: fallback sentence, context, question
- extract_details: document text
- analyze_semantics: document text

Keep the placeholders, and their order, when customising a prompt.
`
	return os.WriteFile(path, []byte(content), 0600)
}
