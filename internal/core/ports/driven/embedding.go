// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
//
// Vectors are assumed normalised by the provider; the core never re-normalises.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector and language tag for the given text.
	// Returns domain.ErrEmptyInput for blank text and
	// domain.ErrProviderUnavailable when the model is not ready.
	Embed(ctx context.Context, text string) (domain.Embedding, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result preserves input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// LanguageDetector tags text with an ISO 639-1 language code,
// or domain.UndeterminedLanguage when unsure.
type LanguageDetector interface {
	Detect(text string) string
}
