// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - DocumentStore: Document and chunk persistence
//   - ChatStore: Chat log persistence
//   - EmbeddingService: Text to vector via an external provider
//   - LLMService: Chat completions, streamed or whole
//   - AIServiceFactory: Provider clients for the settings in effect
//   - TextExtractor / ExtractorRegistry: File bytes to plain text
//   - ConfigStore: Application configuration
//   - PromptStore: Editable prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
