// Package tui provides an interactive terminal user interface for recall.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/recall-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Live runs search-as-you-type queries.
	Live driving.LiveSearchService

	// Ask answers questions. Optional.
	Ask driving.AskService

	// Library lists, reads and opens indexed files. Optional.
	Library driving.LibraryService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	live driving.LiveSearchService,
	ask driving.AskService,
	library driving.LibraryService,
) *Ports {
	return &Ports{
		Live:    live,
		Ask:     ask,
		Library: library,
	}
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Live == nil {
		return ErrMissingSearchService
	}
	return nil
}
