package driven

import "context"

// Extractor produces plain text from a file on disk.
// Each extractor handles specific extensions (e.g., md, html).
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// SupportedExtensions returns lowercased extensions without the dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors should return 50-89.
	// Fallback extractors should return 1-9.
	Priority() int

	// Extract returns the plain text of the file at path.
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorRegistry selects the extractor for a file.
type ExtractorRegistry interface {
	// Extract runs the best extractor for path.
	// Returns domain.ErrUnsupportedType when none applies.
	Extract(ctx context.Context, path string) (string, error)

	// Supports reports whether any extractor handles path.
	Supports(path string) bool
}

// TokenEstimator approximates the token count of text.
type TokenEstimator interface {
	Estimate(text string) int
}
