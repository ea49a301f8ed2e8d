// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval pipeline lives here: AnswerEngine chunks, embeds and
// indexes documents, retrieves the closest chunks for a question and
// asks the language model for a grounded answer. CorpusService searches
// and answers over stored documents. ClassifierService, DetailsService and
// SemanticsService are single prompt-and-parse calls.
//
// Services are pure Go with no CGO or external dependencies.
package services
