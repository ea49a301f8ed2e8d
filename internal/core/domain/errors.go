package domain

import "errors"

// Domain errors represent business logic failures.
// Match them with errors.Is; adapters and services wrap them with context.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates bad or empty input, detected before any external call.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedFormat indicates a document format outside pdf, txt and docx.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates the document bytes could not be turned into text.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbeddingService indicates the embedding provider failed.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrLanguageModelService indicates the language model provider failed.
	ErrLanguageModelService = errors.New("language model service error")

	// ErrTimeout indicates an external call exceeded its deadline.
	// It is always wrapped together with the kind of the failing service.
	ErrTimeout = errors.New("timeout")

	// ErrClassificationParse indicates the model returned a label outside the taxonomy.
	ErrClassificationParse = errors.New("classification response is not a taxonomy label")

	// ErrDetailsParse indicates the model's detail extraction response was not the expected JSON.
	ErrDetailsParse = errors.New("details response could not be parsed")

	// ErrSemanticsParse indicates the model's semantic analysis response was not the expected JSON.
	ErrSemanticsParse = errors.New("semantics response could not be parsed")

	// ErrConfiguration indicates an invalid chunking, dimension or provider setup.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
