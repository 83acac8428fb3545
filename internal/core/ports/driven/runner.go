package driven

import (
	"context"
	"time"
)

// Command is one external engine invocation.
type Command struct {
	// Name is the executable (e.g., "autodock4", "gmx").
	Name string

	// Args are the command arguments.
	Args []string

	// Dir is the working directory.
	Dir string

	// Stdin is fed to the process, for interactive group selection prompts.
	Stdin string

	// Timeout bounds the invocation. Zero means no limit.
	Timeout time.Duration
}

// Outcome is the result of a finished invocation.
type Outcome struct {
	// ExitCode is the process exit status.
	ExitCode int

	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// Duration is the wall time of the invocation.
	Duration time.Duration
}

// CommandRunner executes external engine commands.
// A non-zero exit returns domain.ErrEngineFailed and an exceeded
// timeout returns domain.ErrEngineTimeout, both with the Outcome filled in.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (Outcome, error)
}
