package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyInput indicates blank text was submitted for embedding or search.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no extractor handles the file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIndexInProgress indicates an indexing run is already active.
	ErrIndexInProgress = errors.New("index in progress")

	// ErrProviderUnavailable indicates the embedding model is not ready.
	// Both search and indexing fail fast on it.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answer synthesis falls back to the heuristic composer.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Resource Limits.

	// ErrFileTooLarge indicates a file exceeds the configured size limit.
	// The file is skipped and indexing continues.
	ErrFileTooLarge = errors.New("file too large")

	// ErrStoreFull indicates the store reached its configured size cap.
	// The current run halts and committed work is kept.
	ErrStoreFull = errors.New("store size limit reached")

	// ErrExtractionFailed indicates text could not be produced from a file.
	ErrExtractionFailed = errors.New("extraction failed")
)
