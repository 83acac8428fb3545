package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
	"github.com/custodia-labs/wrapshake/internal/formats/pdbqt"
)

// fakeDockingEngine returns a canned best pose per seed.
type fakeDockingEngine struct {
	poses      map[int]domain.Structure
	failSeed   int
	extractErr error

	gridCalls int
	docked    []int
	receptors []string
}

var _ driven.DockingEngine = (*fakeDockingEngine)(nil)

func (e *fakeDockingEngine) Name() string { return "fake" }

func (e *fakeDockingEngine) PrepareGrid(_ context.Context, _ string) error {
	e.gridCalls++
	return nil
}

func (e *fakeDockingEngine) Dock(_ context.Context, req driven.DockRequest) (driven.DockResult, error) {
	e.docked = append(e.docked, req.Seed)
	e.receptors = append(e.receptors, req.Receptor)
	if req.Seed == e.failSeed {
		return driven.DockResult{}, fmt.Errorf("%w: exit status 1", domain.ErrEngineFailed)
	}
	return driven.DockResult{Seed: req.Seed, Output: fmt.Sprintf("wrapper_%d.dlg", req.Seed)}, nil
}

func (e *fakeDockingEngine) ExtractBestPose(_ context.Context, res driven.DockResult) (domain.Structure, error) {
	if e.extractErr != nil {
		return domain.Structure{}, e.extractErr
	}
	pose, ok := e.poses[res.Seed]
	if !ok {
		return domain.Structure{}, domain.ErrPoseNotFound
	}
	return pose, nil
}

// spreadPoses places each seed's pose next to a different receptor atom.
func spreadPoses(t *testing.T, seeds ...int) map[int]domain.Structure {
	poses := make(map[int]domain.Structure, len(seeds))
	for i, seed := range seeds {
		poses[seed] = poseAt(t, float64(10*i))
	}
	return poses
}

func seedRange(from, to int) []int {
	var seeds []int
	for s := from; s <= to; s++ {
		seeds = append(seeds, s)
	}
	return seeds
}

// runID returns the id of the run persisted in the store.
func (r *testRun) runID(t *testing.T) string {
	t.Helper()
	cp, err := r.checkpoints.Load(context.Background())
	require.NoError(t, err)
	return cp.RunID
}

func dockingOptions(run *testRun, seeds []int, maxAccepted int) DockingOptions {
	return DockingOptions{
		ReceptorPath:      run.receptor,
		LigandPath:        run.ligand,
		Seeds:             seeds,
		MaxAccepted:       maxAccepted,
		MinLigandDistance: 2.0,
		MaskCutoff:        3.5,
		NeutralType:       "X",
	}
}

func TestDockingController_AcceptsAndMasks(t *testing.T) {
	run := newTestRun(t, false)
	engine := &fakeDockingEngine{poses: spreadPoses(t, 1, 2)}
	ctrl := NewDockingController(run.rc, engine, dockingOptions(run, []int{1, 2}, 20))

	summary, err := ctrl.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Attempted)
	assert.Zero(t, summary.Rejected)
	assert.False(t, summary.CapReached)
	id := run.runID(t)
	assert.Equal(t, []domain.ArtifactRef{
		domain.IterationRef(domain.ArtifactPose, id, 1),
		domain.IterationRef(domain.ArtifactPose, id, 2),
	}, summary.AcceptedPoses)

	// Seed 2 is the last seed, so only seed 1 produced a new receptor.
	masked1 := domain.IterationRef(domain.ArtifactReceptor, id, 1)
	assert.Equal(t, masked1, summary.CurrentReceptor)
	assert.Equal(t, []string{
		"memory://" + domain.InitialReceptorRef(id).String(),
		"memory://" + masked1.String(),
	}, engine.receptors)
	assert.Equal(t, 1, engine.gridCalls)

	data, err := run.artifacts.Get(context.Background(), masked1)
	require.NoError(t, err)
	masked, err := pdbqt.ParseBytes(data)
	require.NoError(t, err)
	atoms := masked.Atoms()
	assert.True(t, atoms[0].IsMasked("X"), "atom 1 is 1.5 from the first pose")
	assert.False(t, atoms[1].IsMasked("X"), "atom 2 is 4.3 from the first pose")
	assert.Equal(t, "C", atoms[1].Type)

	cp, err := run.checkpoints.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cp.SuccessCount)
	assert.Equal(t, []int{1, 2}, cp.CompletedIterations)
	assert.True(t, cp.IsStageComplete(domain.StageGrid))
	assert.True(t, cp.IsStageComplete(domain.StageDocking))
	assert.Equal(t, 2, run.metrics.accepted)
	assert.Positive(t, run.metrics.masked)
}

func TestDockingController_RejectsCollidingPose(t *testing.T) {
	run := newTestRun(t, false)
	poses := map[int]domain.Structure{
		1: poseAt(t, 10),
		// Closest atoms are 1.8 apart.
		2: poseAt(t, 12.8),
		3: poseAt(t, 30),
	}
	engine := &fakeDockingEngine{poses: poses}
	ctrl := NewDockingController(run.rc, engine, dockingOptions(run, []int{1, 2, 3}, 20))

	summary, err := ctrl.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Rejected)
	id := run.runID(t)
	assert.Equal(t, []domain.ArtifactRef{
		domain.IterationRef(domain.ArtifactPose, id, 1),
		domain.IterationRef(domain.ArtifactPose, id, 3),
	}, summary.AcceptedPoses)
	// Seed 2 docked against the same receptor as seed 3 would have.
	assert.Equal(t, engine.receptors[1], engine.receptors[2])

	cp, err := run.checkpoints.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, cp.CompletedIterations)
	assert.Equal(t, 2, cp.SuccessCount)
	assert.NoError(t, cp.Validate())

	exists, err := run.artifacts.Exists(context.Background(), domain.IterationRef(domain.ArtifactPose, id, 2))
	require.NoError(t, err)
	assert.False(t, exists, "rejected poses are not stored")
	exists, err = run.artifacts.Exists(context.Background(), domain.IterationRef(domain.ArtifactReceptor, id, 2))
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 1, run.metrics.rejected)
}

func TestDockingController_StopsAtCap(t *testing.T) {
	run := newTestRun(t, false)
	seeds := seedRange(1, 10)
	engine := &fakeDockingEngine{poses: spreadPoses(t, seeds...)}
	ctrl := NewDockingController(run.rc, engine, dockingOptions(run, seeds, 3))

	summary, err := ctrl.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, summary.CapReached)
	assert.Len(t, summary.AcceptedPoses, 3)
	assert.Equal(t, []int{1, 2, 3}, engine.docked)

	cp, err := run.checkpoints.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, cp.CompletedIterations)
	// The third acceptance reached the cap, so no third mask was made.
	assert.Equal(t, domain.IterationRef(domain.ArtifactReceptor, cp.RunID, 2), cp.CurrentReceptor)
}

func TestDockingController_ResumeEquivalence(t *testing.T) {
	seeds := seedRange(1, 6)
	poses := map[int]domain.Structure{
		1: poseAt(t, 0),
		2: poseAt(t, 1.5), // clashes with seed 1
		3: poseAt(t, 20),
		4: poseAt(t, 30),
		5: poseAt(t, 31), // clashes with seed 4
		6: poseAt(t, 45),
	}

	straight := newTestRun(t, false)
	want, err := NewDockingController(straight.rc, &fakeDockingEngine{poses: poses},
		dockingOptions(straight, seeds, 20)).Run(context.Background())
	require.NoError(t, err)
	straightID := straight.runID(t)

	// keys strips the run id so refs of two runs compare by iteration.
	keys := func(id string, refs ...domain.ArtifactRef) []string {
		out := make([]string, len(refs))
		for i, ref := range refs {
			out[i] = string(ref.Kind()) + "/" + strings.TrimPrefix(ref.Key(), id+"-")
		}
		return out
	}

	for failAt := 1; failAt <= len(seeds); failAt++ {
		t.Run(fmt.Sprintf("interrupted at seed %d", failAt), func(t *testing.T) {
			run := newTestRun(t, false)

			_, err := NewDockingController(run.rc, &fakeDockingEngine{poses: poses, failSeed: failAt},
				dockingOptions(run, seeds, 20)).Run(context.Background())
			require.Error(t, err)
			step, ok := domain.FailedStep(err)
			require.True(t, ok)
			assert.Equal(t, domain.StepDock, step)
			assert.True(t, domain.IsEngineError(err))

			resumed := &fakeDockingEngine{poses: poses}
			got, err := NewDockingController(run.newContext(false), resumed,
				dockingOptions(run, seeds, 20)).Run(context.Background())
			require.NoError(t, err)

			id := run.runID(t)
			wantRefs := append(append([]domain.ArtifactRef{}, want.AcceptedPoses...), want.CurrentReceptor)
			gotRefs := append(append([]domain.ArtifactRef{}, got.AcceptedPoses...), got.CurrentReceptor)
			assert.Equal(t, keys(straightID, wantRefs...), keys(id, gotRefs...))
			assert.Equal(t, seeds[failAt-1:], resumed.docked)
			assert.Zero(t, resumed.gridCalls, "grid stage survives the interruption")

			require.Len(t, gotRefs, len(wantRefs))
			for i, ref := range gotRefs {
				a, err := straight.artifacts.Get(context.Background(), wantRefs[i])
				require.NoError(t, err)
				b, err := run.artifacts.Get(context.Background(), ref)
				require.NoError(t, err)
				assert.Equal(t, a, b, "artifact %s", ref)
			}
		})
	}
}

func TestDockingController_ExtractionFailureLeavesCheckpoint(t *testing.T) {
	run := newTestRun(t, false)
	engine := &fakeDockingEngine{poses: spreadPoses(t, 1), extractErr: domain.ErrPoseNotFound}
	ctrl := NewDockingController(run.rc, engine, dockingOptions(run, []int{1, 2}, 20))

	_, err := ctrl.Run(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsExtractionError(err))
	step, _ := domain.FailedStep(err)
	assert.Equal(t, domain.StepExtractPose, step)

	cp, err := run.checkpoints.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cp.CompletedIterations)
	assert.Zero(t, cp.SuccessCount)
}

func TestDockingController_CorruptCheckpointStartsFresh(t *testing.T) {
	run := newTestRun(t, false)
	run.checkpoints.SetRaw([]byte(`{"version": 1, "completed_iterations": [1,`))
	engine := &fakeDockingEngine{poses: spreadPoses(t, 1, 2)}
	ctrl := NewDockingController(run.rc, engine, dockingOptions(run, []int{1, 2}, 20))

	summary, err := ctrl.Run(context.Background())

	require.NoError(t, err)
	assert.False(t, run.rc.Checkpoints.Loaded())
	assert.Equal(t, 2, summary.Attempted)
	assert.Len(t, summary.AcceptedPoses, 2)
}

func TestDockingController_ResetWithChangedReceptor(t *testing.T) {
	run := newTestRun(t, false)
	first, err := NewDockingController(run.rc, &fakeDockingEngine{poses: spreadPoses(t, 1, 2)},
		dockingOptions(run, []int{1, 2}, 20)).Run(context.Background())
	require.NoError(t, err)
	firstID := first.RunID

	// A different receptor: one atom fewer.
	require.NoError(t, os.WriteFile(run.receptor, []byte(strings.Join(receptorLines(9), "\n")+"\n"), 0o644))

	rc := run.newContext(false)
	require.NoError(t, rc.Checkpoints.Reset(context.Background()))
	engine := &fakeDockingEngine{poses: spreadPoses(t, 1, 2)}
	second, err := NewDockingController(rc, engine, dockingOptions(run, []int{1, 2}, 20)).Run(context.Background())

	require.NoError(t, err)
	require.NotEqual(t, firstID, second.RunID)
	assert.Equal(t, "memory://"+domain.InitialReceptorRef(second.RunID).String(), engine.receptors[0])
	assert.Equal(t, 2, second.Attempted)
	assert.Len(t, second.AcceptedPoses, 2)

	data, err := run.artifacts.Get(context.Background(), domain.InitialReceptorRef(second.RunID))
	require.NoError(t, err)
	receptor, err := pdbqt.ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 9, receptor.AtomCount())

	// The earlier run's versions are untouched.
	data, err = run.artifacts.Get(context.Background(), domain.InitialReceptorRef(firstID))
	require.NoError(t, err)
	receptor, err = pdbqt.ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 10, receptor.AtomCount())
}

func TestDockingController_CorruptCheckpointWithChangedReceptor(t *testing.T) {
	run := newTestRun(t, false)
	_, err := NewDockingController(run.rc, &fakeDockingEngine{poses: spreadPoses(t, 1)},
		dockingOptions(run, []int{1}, 20)).Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(run.receptor, []byte(strings.Join(receptorLines(8), "\n")+"\n"), 0o644))
	run.checkpoints.SetRaw([]byte(`{"version": 1, "run_id": `))

	summary, err := NewDockingController(run.newContext(false), &fakeDockingEngine{poses: spreadPoses(t, 1)},
		dockingOptions(run, []int{1}, 20)).Run(context.Background())

	require.NoError(t, err)
	assert.Len(t, summary.AcceptedPoses, 1)
	exists, err := run.artifacts.Exists(context.Background(), domain.InitialReceptorRef(summary.RunID))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDockingController_DryRunPersistsNothing(t *testing.T) {
	run := newTestRun(t, true)
	engine := &fakeDockingEngine{poses: spreadPoses(t, 1, 2, 3)}
	ctrl := NewDockingController(run.rc, engine, dockingOptions(run, []int{1, 2, 3}, 2))

	summary, err := ctrl.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Equal(t, []int{1, 2, 3}, engine.docked)
	assert.Empty(t, summary.AcceptedPoses)
	assert.Zero(t, run.checkpoints.Saves())
	assert.Empty(t, run.artifacts.Refs())
}

func TestDockingController_MissingInputs(t *testing.T) {
	t.Run("ligand", func(t *testing.T) {
		run := newTestRun(t, false)
		engine := &fakeDockingEngine{}
		opts := dockingOptions(run, []int{1}, 20)
		opts.LigandPath = opts.LigandPath + ".missing"

		_, err := NewDockingController(run.rc, engine, opts).Run(context.Background())

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMissingArtifact)
		assert.True(t, domain.IsConfigError(err))
		assert.Zero(t, engine.gridCalls)
		assert.Empty(t, engine.docked)
	})

	t.Run("receptor", func(t *testing.T) {
		run := newTestRun(t, false)
		engine := &fakeDockingEngine{}
		opts := dockingOptions(run, []int{1}, 20)
		opts.ReceptorPath = opts.ReceptorPath + ".missing"

		_, err := NewDockingController(run.rc, engine, opts).Run(context.Background())

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMissingArtifact)
		step, _ := domain.FailedStep(err)
		assert.Equal(t, domain.StepInit, step)
		assert.Zero(t, engine.gridCalls)
	})
}

func TestDockingController_CancelledBetweenSeeds(t *testing.T) {
	run := newTestRun(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := &fakeDockingEngine{poses: spreadPoses(t, 1)}

	_, err := NewDockingController(run.rc, engine, dockingOptions(run, []int{1}, 20)).Run(ctx)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, engine.docked)
}

func TestDockingController_Regrid(t *testing.T) {
	run := newTestRun(t, false)
	engine := &fakeDockingEngine{poses: spreadPoses(t, 1, 2, 3)}
	opts := dockingOptions(run, []int{1, 2, 3}, 20)
	opts.Regrid = true

	_, err := NewDockingController(run.rc, engine, opts).Run(context.Background())

	require.NoError(t, err)
	// Initial grid, then one per masked receptor docked against.
	assert.Equal(t, 3, engine.gridCalls)
}
