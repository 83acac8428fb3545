package services

import (
	"time"

	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
)

// RunContext carries the state shared by every pipeline component of one
// invocation. It replaces package-level working paths and singletons.
type RunContext struct {
	// Checkpoints is the single writer of the progress record.
	Checkpoints *CheckpointService

	// Artifacts holds receptor, pose and complex versions.
	Artifacts driven.ArtifactStore

	// Metrics receives pipeline counters. Nil disables them.
	Metrics driven.Metrics

	// DryRun plans engine invocations without persisting results.
	DryRun bool
}

func (rc *RunContext) metrics() driven.Metrics {
	if rc.Metrics == nil {
		return noopMetrics{}
	}
	return rc.Metrics
}

type noopMetrics struct{}

func (noopMetrics) PoseAccepted()                                {}
func (noopMetrics) PoseRejected()                                {}
func (noopMetrics) AtomsMasked(int)                              {}
func (noopMetrics) ResiduesEvicted(int)                          {}
func (noopMetrics) EngineInvocation(string, time.Duration, error) {}
