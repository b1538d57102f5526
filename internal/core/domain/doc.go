// Package domain defines the core business entities for recall.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ChunkRecord: A persisted, embedded segment of a source file
//   - FileSummary: Per-file aggregate derived from its chunks
//   - SearchResult: One ranked file in a search response
//   - Answer: The synthesised, cited response to a question
//   - Settings: Typed view over the configuration file
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
