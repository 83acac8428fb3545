package driving

import (
	"context"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// WashingEngine runs equilibrate-measure-evict cycles.
type WashingEngine interface {
	// Run executes the pending cycles, resuming from the persisted checkpoint.
	Run(ctx context.Context) (*WashingSummary, error)
}

// CycleReport describes one washing cycle.
type CycleReport struct {
	// Cycle is the 1-based cycle number.
	Cycle int

	// Displacements holds one record per ligand residue still present.
	Displacements []domain.DisplacementRecord

	// Vanished lists residues present before but absent after equilibration.
	Vanished []int

	// Evicted lists the residues removed this cycle.
	Evicted []int

	// Remaining is the ligand count after eviction.
	Remaining int
}

// WashingSummary reports the outcome of a washing run.
type WashingSummary struct {
	// Cycles holds the cycles run in this invocation.
	Cycles []CycleReport

	// CompletedCycles counts all finished cycles, including earlier invocations.
	CompletedCycles int

	// TotalEvicted counts all evicted residues, including earlier invocations.
	TotalEvicted int

	// Remaining is the ligand count at the end.
	Remaining int

	// DryRun reports whether engine invocations were only planned.
	DryRun bool
}
