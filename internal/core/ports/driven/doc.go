// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Chunk record persistence
//   - EmbeddingService: Text to vector, fails fast when the model is not ready
//   - Extractor: Produces plain text from a file
//   - FileSystem: File stats for change detection and orphan sweeps
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer synthesis. Without it, answers are composed heuristically.
//   - TokenEstimator: Context budgeting. Without it, a word-based heuristic is used.
//   - FileClassifier: Code and image detection. Without it, skip settings are ignored.
//   - FileWalker, FileWatcher: Directory scans and live change batches for watch mode.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
