package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptClassify asks for a single taxonomy label.
	// The template expects three %s placeholders: the category names, one
	// "Name: tag, tag" line per category, then the document text.
	PromptClassify = "classify"

	// PromptAnswer asks for an answer grounded only in retrieved context.
	// The template expects %s placeholders for the fallback sentence, the context and the question.
	PromptAnswer = "answer"

	// PromptExtractDetails asks for a JSON object of dates, amounts and names.
	// The template expects a %s placeholder for the document text.
	PromptExtractDetails = "extract_details"

	// PromptAnalyzeSemantics asks for a JSON object of topics, entities,
	// sentiment and relationships. The template expects a %s placeholder for
	// the document text.
	PromptAnalyzeSemantics = "analyze_semantics"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
