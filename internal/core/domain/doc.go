// Package domain defines the core business entities for ragnote.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested file
//   - Chunk: A bounded piece of a document's text with its embedding
//   - ChatTurn: One question and answer in the chat log
//   - RetrievedChunk: A chunk ranked against a query
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
