package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
	"github.com/custodia-labs/wrapshake/internal/formats/pdbqt"
	"github.com/custodia-labs/wrapshake/internal/logger"
)

// Ensure DockingController implements the interface.
var _ driving.DockingController = (*DockingController)(nil)

// DockingOptions configures the sequential docking loop.
type DockingOptions struct {
	// ReceptorPath is the unmasked receptor file.
	ReceptorPath string

	// LigandPath is the ligand docked in every iteration.
	LigandPath string

	// Seeds are docked in order. Each seed is also the iteration id.
	Seeds []int

	// MaxAccepted stops the loop once this many poses are accepted.
	MaxAccepted int

	// MinLigandDistance is the clash threshold between poses.
	MinLigandDistance float64

	// MaskCutoff is the masking radius around an accepted pose.
	MaskCutoff float64

	// NeutralType replaces the type of masked receptor atoms.
	NeutralType string

	// Regrid recomputes the engine grid whenever the receptor changes.
	Regrid bool
}

// DockingController docks a ligand repeatedly, masking the receptor
// surface around every accepted pose so later seeds explore elsewhere.
type DockingController struct {
	rc     *RunContext
	engine driven.DockingEngine
	opts   DockingOptions

	accepted [][]domain.AtomRecord
}

// NewDockingController creates a docking controller.
func NewDockingController(rc *RunContext, engine driven.DockingEngine, opts DockingOptions) *DockingController {
	if opts.NeutralType == "" {
		opts.NeutralType = domain.DefaultNeutralType
	}
	return &DockingController{
		rc:     rc,
		engine: engine,
		opts:   opts,
	}
}

// Run executes INIT, ENGINE_SETUP and the seed loop.
func (c *DockingController) Run(ctx context.Context) (*driving.DockingSummary, error) {
	if err := c.init(ctx); err != nil {
		return nil, err
	}
	cp := c.rc.Checkpoints
	summary := &driving.DockingSummary{
		RunID:  cp.Record().RunID,
		DryRun: c.rc.DryRun,
	}

	if err := c.setupEngine(ctx); err != nil {
		return nil, err
	}

	logger.Section("Docking")
	for i, seed := range c.opts.Seeds {
		if cp.Record().SuccessCount >= c.opts.MaxAccepted {
			summary.CapReached = true
			logger.Info("Acceptance cap of %d reached, stopping", c.opts.MaxAccepted)
			break
		}
		if cp.IsIterationComplete(seed) {
			summary.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("docking interrupted before seed %d: %w", seed, err)
		}

		summary.Attempted++
		rejected, err := c.iterate(ctx, seed, i == len(c.opts.Seeds)-1)
		if err != nil {
			return summary, err
		}
		if rejected {
			summary.Rejected++
		}
	}
	if !summary.CapReached && cp.Record().SuccessCount >= c.opts.MaxAccepted {
		summary.CapReached = true
	}

	if !c.rc.DryRun {
		if err := cp.MarkStageComplete(ctx, domain.StageDocking); err != nil {
			return summary, domain.NewStepError(domain.StepCheckpoint, 0, err)
		}
	}

	summary.AcceptedPoses = append(summary.AcceptedPoses, cp.Record().AcceptedPoses...)
	summary.CurrentReceptor = cp.Record().CurrentReceptor
	logger.Info("Docking finished: %d accepted, %d attempted, %d rejected",
		len(summary.AcceptedPoses), summary.Attempted, summary.Rejected)
	return summary, nil
}

// init loads the checkpoint, seeds the artifact store with the initial
// receptor and caches the atoms of poses accepted in earlier invocations.
func (c *DockingController) init(ctx context.Context) error {
	cp := c.rc.Checkpoints
	if _, err := cp.Load(ctx); err != nil {
		return domain.NewStepError(domain.StepInit, 0, err)
	}

	if _, err := os.Stat(c.opts.LigandPath); err != nil {
		return domain.NewStepError(domain.StepInit, 0,
			fmt.Errorf("%w: ligand %s: %v", domain.ErrMissingArtifact, c.opts.LigandPath, err))
	}

	if cp.Record().CurrentReceptor.IsZero() {
		ref, err := c.storeInitialReceptor(ctx)
		if err != nil {
			return domain.NewStepError(domain.StepInit, 0, err)
		}
		cp.SetCurrentReceptor(ref)
	}

	c.accepted = c.accepted[:0]
	for _, ref := range cp.Record().AcceptedPoses {
		atoms, err := c.loadAtoms(ctx, ref)
		if err != nil {
			return domain.NewStepError(domain.StepInit, 0, fmt.Errorf("load accepted pose %s: %w", ref, err))
		}
		c.accepted = append(c.accepted, atoms)
	}
	return nil
}

func (c *DockingController) storeInitialReceptor(ctx context.Context) (domain.ArtifactRef, error) {
	data, err := os.ReadFile(c.opts.ReceptorPath)
	if err != nil {
		return "", fmt.Errorf("%w: receptor %s: %v", domain.ErrMissingArtifact, c.opts.ReceptorPath, err)
	}
	receptor, err := pdbqt.ParseBytes(data)
	if err != nil {
		return "", fmt.Errorf("receptor %s: %w", c.opts.ReceptorPath, err)
	}
	if receptor.AtomCount() == 0 {
		return "", fmt.Errorf("%w: receptor %s has no atoms", domain.ErrConfig, c.opts.ReceptorPath)
	}

	ref := domain.InitialReceptorRef(c.rc.Checkpoints.Record().RunID)
	if c.rc.DryRun {
		return ref, nil
	}
	if err := c.rc.Artifacts.Put(ctx, ref, data); err != nil {
		return "", fmt.Errorf("store initial receptor: %w", err)
	}
	logger.Debug("Stored initial receptor with %d atoms", receptor.AtomCount())
	return ref, nil
}

// setupEngine runs the one-time grid stage on the current receptor.
func (c *DockingController) setupEngine(ctx context.Context) error {
	cp := c.rc.Checkpoints
	if cp.IsStageComplete(domain.StageGrid) {
		logger.Debug("Grid stage already complete")
		return nil
	}
	return c.prepareGrid(ctx)
}

func (c *DockingController) prepareGrid(ctx context.Context) error {
	cp := c.rc.Checkpoints
	receptor := cp.Record().CurrentReceptor
	logger.Info("Preparing %s grid on %s", c.engine.Name(), receptor)
	if err := c.engine.PrepareGrid(ctx, c.rc.Artifacts.Path(receptor)); err != nil {
		return domain.NewStepError(domain.StepEngineSetup, 0, err)
	}
	if c.rc.DryRun {
		return nil
	}
	cp.SetGridReceptor(receptor)
	if err := cp.MarkStageComplete(ctx, domain.StageGrid); err != nil {
		return domain.NewStepError(domain.StepEngineSetup, 0, err)
	}
	return nil
}

// iterate docks one seed. It reports whether the pose was rejected.
func (c *DockingController) iterate(ctx context.Context, seed int, last bool) (bool, error) {
	cp := c.rc.Checkpoints
	log := logger.With("run", cp.Record().RunID, "seed", seed)
	receptorRef := cp.Record().CurrentReceptor
	poseRef := domain.IterationRef(domain.ArtifactPose, cp.Record().RunID, seed)
	nextRef := domain.IterationRef(domain.ArtifactReceptor, cp.Record().RunID, seed)

	if !c.rc.DryRun {
		// Versions written by an interrupted attempt are not referenced yet.
		for _, ref := range []domain.ArtifactRef{poseRef, nextRef} {
			if err := c.rc.Artifacts.Delete(ctx, ref); err != nil && !errors.Is(err, domain.ErrNotFound) {
				return false, domain.NewStepError(domain.StepDock, seed, err)
			}
		}
	}

	if c.opts.Regrid && cp.Record().GridReceptor != receptorRef {
		if err := c.prepareGrid(ctx); err != nil {
			return false, err
		}
	}

	log.Debugf("Docking against %s", receptorRef)
	res, err := c.engine.Dock(ctx, driven.DockRequest{
		Seed:     seed,
		Receptor: c.rc.Artifacts.Path(receptorRef),
		Ligand:   c.opts.LigandPath,
	})
	if err != nil {
		return false, domain.NewStepError(domain.StepDock, seed, err)
	}
	if c.rc.DryRun {
		return false, nil
	}

	pose, err := c.engine.ExtractBestPose(ctx, res)
	if err != nil {
		return false, domain.NewStepError(domain.StepExtractPose, seed, err)
	}
	candidate := pose.Atoms()

	if Clash(candidate, c.accepted, c.opts.MinLigandDistance) {
		log.Infof("Pose rejected: within %.2f of an accepted pose", c.opts.MinLigandDistance)
		c.rc.metrics().PoseRejected()
		if err := cp.MarkIterationComplete(ctx, seed, "", receptorRef); err != nil {
			return true, domain.NewStepError(domain.StepCheckpoint, seed, err)
		}
		return true, nil
	}

	if err := c.rc.Artifacts.Put(ctx, poseRef, pdbqt.Marshal(pose)); err != nil {
		return false, domain.NewStepError(domain.StepAccept, seed, err)
	}
	c.rc.metrics().PoseAccepted()

	next := receptorRef
	if !last && cp.Record().SuccessCount+1 < c.opts.MaxAccepted {
		next, err = c.mask(ctx, receptorRef, nextRef, candidate)
		if err != nil {
			return false, domain.NewStepError(domain.StepMask, seed, err)
		}
	}

	if err := cp.MarkIterationComplete(ctx, seed, poseRef, next); err != nil {
		return false, domain.NewStepError(domain.StepCheckpoint, seed, err)
	}
	c.accepted = append(c.accepted, candidate)
	log.Infof("Pose accepted (%d/%d), receptor now %s", cp.Record().SuccessCount, c.opts.MaxAccepted, next)
	return false, nil
}

// mask stores a new receptor version masked around pose.
func (c *DockingController) mask(ctx context.Context, from, to domain.ArtifactRef, pose []domain.AtomRecord) (domain.ArtifactRef, error) {
	data, err := c.rc.Artifacts.Get(ctx, from)
	if err != nil {
		return "", fmt.Errorf("load receptor %s: %w", from, err)
	}
	receptor, err := pdbqt.ParseBytes(data)
	if err != nil {
		return "", fmt.Errorf("parse receptor %s: %w", from, err)
	}

	masked, n := MaskReceptor(receptor, [][]domain.AtomRecord{pose}, c.opts.MaskCutoff, c.opts.NeutralType)
	if err := c.rc.Artifacts.Put(ctx, to, pdbqt.Marshal(masked)); err != nil {
		return "", fmt.Errorf("store receptor %s: %w", to, err)
	}
	c.rc.metrics().AtomsMasked(n)
	logger.Debug("Masked %d receptor atoms within %.2f", n, c.opts.MaskCutoff)
	return to, nil
}

func (c *DockingController) loadAtoms(ctx context.Context, ref domain.ArtifactRef) ([]domain.AtomRecord, error) {
	data, err := c.rc.Artifacts.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	s, err := pdbqt.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	return s.Atoms(), nil
}
