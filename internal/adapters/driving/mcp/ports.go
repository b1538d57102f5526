package mcp

import (
	"github.com/custodia-labs/recall-cli/internal/core/domain"
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search ranks indexed files.
	Search driving.SearchService

	// Ask answers questions from indexed files. Optional.
	Ask driving.AskService

	// Library lists indexed files and their content. Optional.
	Library driving.LibraryService

	// SearchDefaults supplies the limit and floor when a call omits them.
	SearchDefaults domain.SearchOptions
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
