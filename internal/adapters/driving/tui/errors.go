package tui

import "errors"

// ErrMissingStatusReporter is returned when the status reporter is not provided.
var ErrMissingStatusReporter = errors.New("tui: status reporter is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
