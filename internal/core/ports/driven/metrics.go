package driven

import "time"

// Metrics records pipeline counters. Optional: services accept nil.
type Metrics interface {
	// PoseAccepted counts an accepted docking pose.
	PoseAccepted()

	// PoseRejected counts a pose rejected for collision.
	PoseRejected()

	// AtomsMasked counts receptor atoms neutralised by one masking pass.
	AtomsMasked(n int)

	// ResiduesEvicted counts ligand residues removed in one washing cycle.
	ResiduesEvicted(n int)

	// EngineInvocation records one external invocation.
	EngineInvocation(engine string, d time.Duration, err error)
}
