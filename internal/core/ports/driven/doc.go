// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Maps text to vectors (Ollama, OpenAI)
//   - LLMService: Generates answers from prompts (Ollama, OpenAI, Anthropic)
//   - VectorIndexBuilder: Builds a searchable VectorIndex from entries
//   - IndexStore: Persists and loads index entries
//   - NormaliserRegistry: Turns raw bytes into a Document
//   - PostProcessorPipeline: Splits a Document into chunks
//   - PromptStore: Loads prompt template assets
//   - ConfigStore: Application configuration
//
// # Handles
//
// A VectorIndex is immutable once built. All of its methods are safe for
// concurrent use and never mutate shared state, so readers need no locks.
package driven
