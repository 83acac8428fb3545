package driven

import (
	"context"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// DockRequest describes one docking invocation.
type DockRequest struct {
	// Seed is the random seed and iteration id.
	Seed int

	// Receptor is the path of the receptor version to dock against.
	Receptor string

	// Ligand is the path of the ligand to place.
	Ligand string
}

// DockResult points at the engine output of one invocation.
type DockResult struct {
	// Seed is the seed that produced the output.
	Seed int

	// Output is the results log or pose file path.
	Output string
}

// DockingEngine wraps an external docking program.
type DockingEngine interface {
	// Name returns the engine identifier (e.g., "autodock4", "vina").
	Name() string

	// PrepareGrid precomputes scoring grids for receptor.
	// Engines without a grid stage return nil.
	PrepareGrid(ctx context.Context, receptor string) error

	// Dock runs one docking invocation.
	Dock(ctx context.Context, req DockRequest) (DockResult, error)

	// ExtractBestPose returns the best-ranked pose from a result.
	// Returns domain.ErrPoseNotFound when the expected block is absent.
	ExtractBestPose(ctx context.Context, res DockResult) (domain.Structure, error)
}

// EquilibrationRequest describes one washing-cycle simulation.
type EquilibrationRequest struct {
	// WorkDir holds the simulation inputs and receives outputs.
	WorkDir string

	// Deffnm is the default output file stem for this cycle.
	Deffnm string

	// Parameters is the .mdp file name.
	Parameters string

	// Coordinates is the starting .gro file name.
	Coordinates string

	// Topology is the .top file name.
	Topology string

	// Index is the .ndx file name, empty when not used.
	Index string
}

// FrameRequest describes extraction of the last trajectory frame.
type FrameRequest struct {
	// WorkDir holds the trajectory.
	WorkDir string

	// Deffnm is the output stem of the simulation.
	Deffnm string

	// TimePS is the frame time to dump.
	TimePS float64

	// Output is the .gro file name to write.
	Output string
}

// MDEngine wraps an external molecular dynamics package.
type MDEngine interface {
	// Equilibrate preprocesses and runs one simulation.
	Equilibrate(ctx context.Context, req EquilibrationRequest) error

	// ExtractFinalFrame writes the frame at req.TimePS as a .gro snapshot.
	ExtractFinalFrame(ctx context.Context, req FrameRequest) error

	// RegenerateIndex rebuilds the index file for coordinates.
	// Must be called whenever atom numbering changes.
	RegenerateIndex(ctx context.Context, workDir, coordinates, index string) error

	// DiscardRunState removes the restart state of a finished simulation so
	// a later Equilibrate with the same deffnm starts from scratch.
	DiscardRunState(workDir, deffnm string) error
}
