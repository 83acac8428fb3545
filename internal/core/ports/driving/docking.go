package driving

import (
	"context"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// DockingController runs the sequential docking loop.
type DockingController interface {
	// Run docks every pending seed, resuming from the persisted checkpoint.
	Run(ctx context.Context) (*DockingSummary, error)
}

// DockingSummary reports the outcome of a docking run.
type DockingSummary struct {
	// RunID identifies the run.
	RunID string

	// Attempted is the number of seeds docked in this invocation.
	Attempted int

	// Skipped is the number of seeds already complete from a previous invocation.
	Skipped int

	// Rejected is the number of poses discarded for collision in this invocation.
	Rejected int

	// AcceptedPoses lists every accepted pose, including earlier invocations.
	AcceptedPoses []domain.ArtifactRef

	// CurrentReceptor is the latest receptor version.
	CurrentReceptor domain.ArtifactRef

	// CapReached reports whether the acceptance cap stopped the loop.
	CapReached bool

	// DryRun reports whether engine invocations were only planned.
	DryRun bool
}
