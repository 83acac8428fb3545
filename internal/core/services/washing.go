package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/wrapshake/internal/atomicfile"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
	"github.com/custodia-labs/wrapshake/internal/formats/gro"
	"github.com/custodia-labs/wrapshake/internal/formats/gromacs"
	"github.com/custodia-labs/wrapshake/internal/logger"
)

// Ensure WashingService implements the interface.
var _ driving.WashingEngine = (*WashingService)(nil)

// WashingOptions configures the eviction cycles.
type WashingOptions struct {
	// WorkDir holds the simulation files. File names below are relative to it.
	WorkDir string

	// Cycles is the total number of cycles, including completed ones.
	Cycles int

	// LigandResName is the residue name of ligand copies in the coordinates.
	LigandResName string

	// LigandMolecule is the molecule type in the topology. Defaults to LigandResName.
	LigandMolecule string

	// DisplacementCutoff evicts residues that move further than this (Å).
	DisplacementCutoff float64

	// CycleTimeNS is the simulated time per cycle.
	CycleTimeNS float64

	// DurationTolerance is the allowed gap between CycleTimeNS and the
	// parameter file's nsteps*dt.
	DurationTolerance float64

	// CoordinateScale converts coordinate units to Å (10 for nm).
	CoordinateScale float64

	Topology    string
	Coordinates string
	Parameters  string
	Index       string
}

// WashingService runs equilibrate-measure-evict cycles and prunes ligand
// copies that drift away from their docked position.
type WashingService struct {
	rc     *RunContext
	engine driven.MDEngine
	opts   WashingOptions
}

// NewWashingService creates a washing service.
func NewWashingService(rc *RunContext, engine driven.MDEngine, opts WashingOptions) *WashingService {
	if opts.LigandMolecule == "" {
		opts.LigandMolecule = opts.LigandResName
	}
	if opts.CoordinateScale == 0 {
		opts.CoordinateScale = 1
	}
	return &WashingService{rc: rc, engine: engine, opts: opts}
}

// Run executes the pending cycles.
func (s *WashingService) Run(ctx context.Context) (*driving.WashingSummary, error) {
	cp := s.rc.Checkpoints
	if _, err := cp.Load(ctx); err != nil {
		return nil, domain.NewStepError(domain.StepValidateInput, 0, err)
	}
	summary := &driving.WashingSummary{DryRun: s.rc.DryRun}

	if pending := cp.Record().Washing.Pending; pending != nil && !s.rc.DryRun {
		logger.Info("Finishing the interrupted eviction of cycle %d", pending.Cycle)
		report, _, err := s.applyEviction(ctx, *pending)
		if err != nil {
			return s.finish(summary, 0), err
		}
		summary.Cycles = append(summary.Cycles, *report)
	}
	start := cp.Record().Washing.CompletedCycles + 1

	frame, err := s.validate(ctx, start)
	if err != nil {
		return nil, domain.NewStepError(domain.StepValidateInput, start, err)
	}
	remaining := len(gro.ResidueAtoms(frame.Atoms(), s.opts.LigandResName))

	logger.Section("Washing")
	for cycle := start; cycle <= s.opts.Cycles && remaining > 0; cycle++ {
		if err := ctx.Err(); err != nil {
			return s.finish(summary, remaining), fmt.Errorf("washing interrupted before cycle %d: %w", cycle, err)
		}

		report, next, err := s.runCycle(ctx, cycle, frame)
		if err != nil {
			return s.finish(summary, remaining), err
		}
		summary.Cycles = append(summary.Cycles, *report)
		if s.rc.DryRun {
			continue
		}
		frame = next
		remaining = report.Remaining
	}

	if remaining == 0 {
		logger.Info("No ligand residues remain, washing finished early")
	}
	if !s.rc.DryRun && (remaining == 0 || cp.Record().Washing.CompletedCycles >= s.opts.Cycles) {
		if err := cp.MarkStageComplete(ctx, domain.StageWashing); err != nil {
			return s.finish(summary, remaining), domain.NewStepError(domain.StepCheckpoint, 0, err)
		}
	}
	return s.finish(summary, remaining), nil
}

func (s *WashingService) finish(summary *driving.WashingSummary, remaining int) *driving.WashingSummary {
	w := s.rc.Checkpoints.Record().Washing
	summary.CompletedCycles = w.CompletedCycles
	summary.TotalEvicted = w.TotalEvicted
	summary.Remaining = remaining
	return summary
}

// validate checks the inputs and returns the starting coordinates.
func (s *WashingService) validate(ctx context.Context, cycle int) (gro.Frame, error) {
	for _, name := range []string{s.opts.Topology, s.opts.Coordinates, s.opts.Parameters} {
		if _, err := os.Stat(s.path(name)); err != nil {
			return gro.Frame{}, fmt.Errorf("%w: %s: %v", domain.ErrMissingArtifact, s.path(name), err)
		}
	}

	mdp, err := os.ReadFile(s.path(s.opts.Parameters))
	if err != nil {
		return gro.Frame{}, fmt.Errorf("read parameters: %w", err)
	}
	if err := gromacs.ParseMDP(string(mdp)).CheckDuration(s.opts.CycleTimeNS, s.opts.DurationTolerance); err != nil {
		return gro.Frame{}, err
	}

	data, err := os.ReadFile(s.path(s.opts.Coordinates))
	if err != nil {
		return gro.Frame{}, fmt.Errorf("read coordinates: %w", err)
	}
	frame, err := gro.ParseBytes(data)
	if err != nil {
		return gro.Frame{}, fmt.Errorf("coordinates %s: %w", s.opts.Coordinates, err)
	}

	top, err := os.ReadFile(s.path(s.opts.Topology))
	if err != nil {
		return gro.Frame{}, fmt.Errorf("read topology: %w", err)
	}
	listed, err := gromacs.MoleculeCount(string(top), s.opts.LigandMolecule)
	if err != nil {
		return gro.Frame{}, err
	}

	// Coordinates edited outside the washing cycles can leave the topology
	// listing residues that are no longer there.
	present := len(gro.ResidueAtoms(frame.Atoms(), s.opts.LigandResName))
	if listed > present && !s.rc.DryRun {
		logger.Warn("Topology lists %d %s molecules but coordinates hold %d, repairing",
			listed, s.opts.LigandMolecule, present)
		if err := s.syncTopology(present); err != nil {
			return gro.Frame{}, err
		}
		if err := s.regenerateIndex(ctx); err != nil {
			return gro.Frame{}, err
		}
	}
	logger.Debug("Cycle %d inputs valid: %d ligand residues", cycle, present)
	return frame, nil
}

// runCycle equilibrates, measures and evicts. The returned frame is the
// promoted coordinate snapshot.
func (s *WashingService) runCycle(ctx context.Context, cycle int, before gro.Frame) (*driving.CycleReport, gro.Frame, error) {
	cp := s.rc.Checkpoints
	log := logger.With("run", cp.Record().RunID, "cycle", cycle)
	deffnm := fmt.Sprintf("wash_%d", cycle)
	finalName := deffnm + "_final.gro"
	report := &driving.CycleReport{Cycle: cycle}

	log.Infof("Equilibrating %s for %.3f ns", deffnm, s.opts.CycleTimeNS)
	if err := s.engine.Equilibrate(ctx, driven.EquilibrationRequest{
		WorkDir:     s.opts.WorkDir,
		Deffnm:      deffnm,
		Parameters:  s.opts.Parameters,
		Coordinates: s.opts.Coordinates,
		Topology:    s.opts.Topology,
		Index:       s.opts.Index,
	}); err != nil {
		return nil, gro.Frame{}, domain.NewStepError(domain.StepRunEquilibration, cycle, err)
	}

	if err := s.engine.ExtractFinalFrame(ctx, driven.FrameRequest{
		WorkDir: s.opts.WorkDir,
		Deffnm:  deffnm,
		TimePS:  s.opts.CycleTimeNS * 1000,
		Output:  finalName,
	}); err != nil {
		return nil, gro.Frame{}, domain.NewStepError(domain.StepExtractFinalFrame, cycle, err)
	}
	if s.rc.DryRun {
		return report, before, nil
	}

	data, err := os.ReadFile(s.path(finalName))
	if err != nil {
		return nil, gro.Frame{}, domain.NewStepError(domain.StepExtractFinalFrame, cycle,
			fmt.Errorf("%w: final frame %s: %v", domain.ErrMissingArtifact, finalName, err))
	}
	after, err := gro.ParseBytes(data)
	if err != nil {
		return nil, gro.Frame{}, domain.NewStepError(domain.StepComputeDisplacements, cycle, err)
	}

	report.Displacements, report.Vanished = ComputeDisplacements(before.Atoms(), after.Atoms(),
		s.opts.LigandResName, s.opts.CoordinateScale, s.opts.DisplacementCutoff)
	report.Evicted = Evicted(report.Displacements)
	for _, r := range report.Displacements {
		log.Debugf("Residue %d moved %.2f Å (evicted=%t)", r.ResidueID, r.Displacement, r.Evicted)
	}
	for _, id := range report.Vanished {
		log.Warnf("Residue %d missing from final frame, dropped from the system", id)
	}

	// Vanished residues are gone from the final frame, so they leave the
	// system together with the evicted ones.
	removed := make(map[int]bool, len(report.Evicted))
	for _, id := range report.Evicted {
		removed[id] = true
	}
	pruned, atoms := gro.RemoveResidues(after, s.opts.LigandResName, removed)
	next := gro.Renumber(pruned)
	next.Title = fmt.Sprintf("%s after wash cycle %d", s.opts.LigandResName, cycle)
	logger.Debug("Removed %d atoms of %d evicted residues", atoms, len(report.Evicted))

	pending := domain.PendingEviction{
		Cycle:    cycle,
		Evicted:  report.Evicted,
		Vanished: report.Vanished,
		Frame:    deffnm + "_next.gro",
	}
	if err := atomicfile.WriteFile(s.path(pending.Frame), gro.Marshal(next), 0o644); err != nil {
		return nil, gro.Frame{}, domain.NewStepError(domain.StepEvict, cycle, fmt.Errorf("stage coordinates: %w", err))
	}
	if err := cp.BeginEviction(ctx, pending); err != nil {
		return nil, gro.Frame{}, domain.NewStepError(domain.StepCheckpoint, cycle, err)
	}

	applied, promoted, err := s.applyEviction(ctx, pending)
	if err != nil {
		return nil, gro.Frame{}, err
	}
	report.Remaining = applied.Remaining
	return report, promoted, nil
}

// applyEviction promotes the staged frame of a recorded eviction to the
// authoritative coordinates, brings the topology and index in line with it
// and completes the cycle. Every step can be repeated, so an eviction cut
// short by a failure is finished on the next run.
func (s *WashingService) applyEviction(ctx context.Context, p domain.PendingEviction) (*driving.CycleReport, gro.Frame, error) {
	cp := s.rc.Checkpoints
	fail := func(step domain.Step, err error) (*driving.CycleReport, gro.Frame, error) {
		return nil, gro.Frame{}, domain.NewStepError(step, p.Cycle, err)
	}

	staged := s.path(p.Frame)
	data, err := os.ReadFile(staged)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Already promoted and cleaned up by an earlier attempt.
		data, err = os.ReadFile(s.path(s.opts.Coordinates))
		if err != nil {
			return fail(domain.StepEvict, fmt.Errorf("read coordinates: %w", err))
		}
	case err != nil:
		return fail(domain.StepEvict, fmt.Errorf("read staged coordinates: %w", err))
	}
	next, err := gro.ParseBytes(data)
	if err != nil {
		return fail(domain.StepEvict, fmt.Errorf("staged coordinates %s: %w", p.Frame, err))
	}
	remaining := len(gro.ResidueAtoms(next.Atoms(), s.opts.LigandResName))

	if err := atomicfile.WriteFile(s.path(s.opts.Coordinates), gro.Marshal(next), 0o644); err != nil {
		return fail(domain.StepEvict, fmt.Errorf("write coordinates: %w", err))
	}
	if p.Removed() > 0 {
		if err := s.syncTopology(remaining); err != nil {
			return fail(domain.StepEvict, err)
		}
		if err := s.regenerateIndex(ctx); err != nil {
			return fail(domain.StepEvict, err)
		}
	}
	if err := s.engine.DiscardRunState(s.opts.WorkDir, fmt.Sprintf("wash_%d", p.Cycle)); err != nil {
		return fail(domain.StepEvict, err)
	}

	if err := cp.MarkCycleComplete(ctx, p.Cycle, p.Evicted, p.Vanished); err != nil {
		return fail(domain.StepCheckpoint, err)
	}
	if err := os.Remove(staged); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Could not remove %s: %v", p.Frame, err)
	}

	s.rc.metrics().ResiduesEvicted(len(p.Evicted))
	logger.With("run", cp.Record().RunID, "cycle", p.Cycle).
		Infof("Cycle complete: %d evicted, %d vanished, %d remaining", len(p.Evicted), len(p.Vanished), remaining)
	return &driving.CycleReport{
		Cycle:     p.Cycle,
		Evicted:   p.Evicted,
		Vanished:  p.Vanished,
		Remaining: remaining,
	}, next, nil
}

// syncTopology lowers the ligand molecule count to present. Counts that
// already match are left untouched.
func (s *WashingService) syncTopology(present int) error {
	top, err := os.ReadFile(s.path(s.opts.Topology))
	if err != nil {
		return fmt.Errorf("read topology: %w", err)
	}
	listed, err := gromacs.MoleculeCount(string(top), s.opts.LigandMolecule)
	if err != nil {
		return err
	}
	if listed <= present {
		return nil
	}
	updated, err := gromacs.DecrementMolecules(string(top), s.opts.LigandMolecule, listed-present)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(s.path(s.opts.Topology), []byte(updated), 0o644); err != nil {
		return fmt.Errorf("write topology: %w", err)
	}
	return nil
}

func (s *WashingService) regenerateIndex(ctx context.Context) error {
	if s.opts.Index == "" {
		return nil
	}
	if err := s.engine.RegenerateIndex(ctx, s.opts.WorkDir, s.opts.Coordinates, s.opts.Index); err != nil {
		return fmt.Errorf("regenerate index: %w", err)
	}
	return nil
}

func (s *WashingService) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.opts.WorkDir, name)
}
