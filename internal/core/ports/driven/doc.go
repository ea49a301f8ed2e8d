// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - TextExtractor: Turns pdf, txt or docx bytes into text
//   - Embedder: Maps text to vectors
//   - VectorIndex: Stores vectors and answers nearest-neighbour queries
//   - LanguageModel: Classifies, extracts details and answers questions
//   - DocumentStore: Document metadata persistence
//   - Fetcher: Reads documents from paths and URLs
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - PromptStore: User-editable prompt templates. Services fall back to built-in prompts.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
