package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoLiveSearch indicates that no live search service was provided.
	ErrNoLiveSearch = errors.New("live search service is required")

	// ErrNoLibrary indicates that files cannot be opened.
	ErrNoLibrary = errors.New("library service is not configured")
)
