// Package tui provides the live progress view for wrapshake.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the view.
type Ports struct {
	// Status reads the persisted progress record.
	Status driving.StatusReporter
}

// NewPorts creates a new Ports aggregate.
func NewPorts(status driving.StatusReporter) *Ports {
	return &Ports{Status: status}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Status == nil {
		return ErrMissingStatusReporter
	}
	return nil
}
