// Package domain defines the core entities of the retrieval QA system.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Source text plus its identifier
//   - Chunk: An overlapping passage of a document
//   - IndexEntry: A chunk paired with its embedding vector
//   - ScoredChunk: A retrieval hit with its similarity
//   - Answer: Generated text plus the context used to produce it
//
// It also holds the error taxonomy shared by every component.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
