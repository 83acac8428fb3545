package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// CheckpointVersion is the persisted schema version.
const CheckpointVersion = 1

// Stage names a one-time pipeline stage.
type Stage string

// Pipeline stages.
const (
	// StageGrid is the docking engine's grid precomputation.
	StageGrid Stage = "grid"

	// StageDocking is set once the seed loop has finished or hit the cap.
	StageDocking Stage = "docking"

	// StageWashing is set once all washing cycles have run.
	StageWashing Stage = "washing"
)

// Checkpoint is the durable progress record of a run.
//
// Invariants: len(AcceptedPoses) == SuccessCount, and every completed
// iteration is either accepted (its pose is in AcceptedPoses) or rejected.
type Checkpoint struct {
	// Version is the schema version.
	Version int `json:"version"`

	// RunID identifies the run across resumes.
	RunID string `json:"run_id"`

	// CompletedIterations lists finished seeds in completion order.
	CompletedIterations []int `json:"completed_iterations"`

	// AcceptedPoses lists accepted pose artifacts in acceptance order.
	AcceptedPoses []ArtifactRef `json:"accepted_poses"`

	// CurrentReceptor is the receptor version the next iteration docks against.
	CurrentReceptor ArtifactRef `json:"current_receptor"`

	// GridReceptor is the receptor version the docking grid was computed on.
	GridReceptor ArtifactRef `json:"grid_receptor,omitempty"`

	// Stages records completed one-time stages.
	Stages map[Stage]bool `json:"stages"`

	// SuccessCount is the number of accepted poses.
	SuccessCount int `json:"success_count"`

	// Washing records eviction cycle progress.
	Washing WashingProgress `json:"washing"`

	// UpdatedAt is when the record was last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// WashingProgress records completed washing cycles.
type WashingProgress struct {
	// CompletedCycles is the number of finished cycles.
	CompletedCycles int `json:"completed_cycles"`

	// TotalEvicted is the number of ligand residues evicted so far.
	TotalEvicted int `json:"total_evicted"`

	// Evicted maps a cycle number to the residue ids it evicted.
	Evicted map[int][]int `json:"evicted,omitempty"`

	// Vanished maps a cycle number to the residue ids missing from its
	// final frame.
	Vanished map[int][]int `json:"vanished,omitempty"`

	// Pending is a decided eviction whose file updates may be incomplete.
	// It is set before any simulation file is rewritten and cleared when the
	// cycle completes.
	Pending *PendingEviction `json:"pending,omitempty"`
}

// PendingEviction is the outcome of a measured cycle that has not been
// fully applied to the simulation files yet.
type PendingEviction struct {
	// Cycle is the cycle number.
	Cycle int `json:"cycle"`

	// Evicted lists the residue ids removed for excess displacement.
	Evicted []int `json:"evicted,omitempty"`

	// Vanished lists the residue ids missing from the final frame.
	Vanished []int `json:"vanished,omitempty"`

	// Frame is the staged coordinate file to promote, relative to the
	// washing work directory.
	Frame string `json:"frame"`
}

// Removed is the number of ligand residues the cycle takes out of the system.
func (p PendingEviction) Removed() int {
	return len(p.Evicted) + len(p.Vanished)
}

// NewCheckpoint returns a fresh record with a new run id.
func NewCheckpoint() *Checkpoint {
	return &Checkpoint{
		Version: CheckpointVersion,
		RunID:   uuid.NewString(),
		Stages:  make(map[Stage]bool),
	}
}

// IsIterationComplete reports whether the iteration already ran.
func (c *Checkpoint) IsIterationComplete(id int) bool {
	return slices.Contains(c.CompletedIterations, id)
}

// MarkIterationComplete records a finished iteration. A zero pose means the
// candidate was rejected; the pose list and counter only change on acceptance.
func (c *Checkpoint) MarkIterationComplete(id int, pose, receptor ArtifactRef) {
	if !c.IsIterationComplete(id) {
		c.CompletedIterations = append(c.CompletedIterations, id)
	}
	c.CurrentReceptor = receptor
	if !pose.IsZero() && !slices.Contains(c.AcceptedPoses, pose) {
		c.AcceptedPoses = append(c.AcceptedPoses, pose)
		c.SuccessCount++
	}
	c.touch()
}

// MarkStageComplete sets a stage flag.
func (c *Checkpoint) MarkStageComplete(stage Stage) {
	if c.Stages == nil {
		c.Stages = make(map[Stage]bool)
	}
	c.Stages[stage] = true
	c.touch()
}

// ClearStage unsets a stage flag.
func (c *Checkpoint) ClearStage(stage Stage) {
	delete(c.Stages, stage)
	c.touch()
}

// IsStageComplete reports whether a stage flag is set.
func (c *Checkpoint) IsStageComplete(stage Stage) bool {
	return c.Stages[stage]
}

// BeginEviction records a decided eviction before the simulation files
// are rewritten.
func (c *Checkpoint) BeginEviction(p PendingEviction) {
	p.Evicted = slices.Clone(p.Evicted)
	p.Vanished = slices.Clone(p.Vanished)
	c.Washing.Pending = &p
	c.touch()
}

// MarkCycleComplete records a finished washing cycle with its evicted and
// vanished residues, and clears its pending eviction. Cycles already
// recorded are ignored.
func (c *Checkpoint) MarkCycleComplete(cycle int, evicted, vanished []int) {
	if p := c.Washing.Pending; p != nil && p.Cycle <= cycle {
		c.Washing.Pending = nil
	}
	if cycle <= c.Washing.CompletedCycles {
		c.touch()
		return
	}
	c.Washing.CompletedCycles = cycle
	if len(evicted) > 0 {
		if c.Washing.Evicted == nil {
			c.Washing.Evicted = make(map[int][]int)
		}
		c.Washing.Evicted[cycle] = slices.Clone(evicted)
		c.Washing.TotalEvicted += len(evicted)
	}
	if len(vanished) > 0 {
		if c.Washing.Vanished == nil {
			c.Washing.Vanished = make(map[int][]int)
		}
		c.Washing.Vanished[cycle] = slices.Clone(vanished)
	}
	c.touch()
}

// Validate checks the record invariants.
func (c *Checkpoint) Validate() error {
	if c.RunID == "" {
		return fmt.Errorf("%w: missing run id", ErrCheckpointCorrupt)
	}
	if len(c.AcceptedPoses) != c.SuccessCount {
		return fmt.Errorf("%w: %d accepted poses but success count %d",
			ErrCheckpointCorrupt, len(c.AcceptedPoses), c.SuccessCount)
	}
	seen := make(map[int]bool, len(c.CompletedIterations))
	for _, id := range c.CompletedIterations {
		if seen[id] {
			return fmt.Errorf("%w: iteration %d completed twice", ErrCheckpointCorrupt, id)
		}
		seen[id] = true
	}
	for _, ref := range c.AcceptedPoses {
		if ref.Kind() != ArtifactPose {
			return fmt.Errorf("%w: accepted pose %q has kind %q", ErrCheckpointCorrupt, ref, ref.Kind())
		}
	}
	if c.Washing.CompletedCycles < 0 || c.Washing.TotalEvicted < 0 {
		return fmt.Errorf("%w: negative washing counters", ErrCheckpointCorrupt)
	}
	if p := c.Washing.Pending; p != nil && (p.Cycle != c.Washing.CompletedCycles+1 || p.Frame == "") {
		return fmt.Errorf("%w: pending eviction of cycle %d after %d completed cycles",
			ErrCheckpointCorrupt, p.Cycle, c.Washing.CompletedCycles)
	}
	return nil
}

func (c *Checkpoint) touch() {
	c.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
}
