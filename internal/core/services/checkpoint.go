package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
	"github.com/custodia-labs/wrapshake/internal/logger"
)

// Ensure CheckpointService implements the interface.
var _ driving.StatusReporter = (*CheckpointService)(nil)

// CheckpointService owns the in-memory progress record and persists it
// after every state change. One controller process is the only writer.
type CheckpointService struct {
	store  driven.CheckpointStore
	dryRun bool
	record *domain.Checkpoint
	loaded bool
}

// NewCheckpointService creates a checkpoint service over store.
// In dry-run mode nothing is persisted.
func NewCheckpointService(store driven.CheckpointStore, dryRun bool) *CheckpointService {
	return &CheckpointService{
		store:  store,
		dryRun: dryRun,
		record: domain.NewCheckpoint(),
	}
}

// Load reads the persisted record. It reports true when a valid record was
// loaded. Missing or malformed data yields a fresh record and false; only
// storage failures are returned as errors.
func (s *CheckpointService) Load(ctx context.Context) (bool, error) {
	cp, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.record, s.loaded = domain.NewCheckpoint(), false
		return false, nil
	case errors.Is(err, domain.ErrCheckpointCorrupt):
		logger.Warn("Could not load checkpoint (%v), starting fresh", err)
		s.record, s.loaded = domain.NewCheckpoint(), false
		return false, nil
	case err != nil:
		return false, fmt.Errorf("load checkpoint: %w", err)
	}

	if err := cp.Validate(); err != nil {
		logger.Warn("Could not load checkpoint (%v), starting fresh", err)
		s.record, s.loaded = domain.NewCheckpoint(), false
		return false, nil
	}
	if cp.Stages == nil {
		cp.Stages = make(map[domain.Stage]bool)
	}

	s.record, s.loaded = cp, true
	logger.Info("Resuming run %s: %d iterations completed, %d poses accepted",
		cp.RunID, len(cp.CompletedIterations), cp.SuccessCount)
	return true, nil
}

// Loaded reports whether the current record came from storage.
func (s *CheckpointService) Loaded() bool {
	return s.loaded
}

// Record returns the current record. Callers must not mutate it directly.
func (s *CheckpointService) Record() *domain.Checkpoint {
	return s.record
}

// SetCurrentReceptor points the record at a receptor version without
// persisting. The next Save writes it.
func (s *CheckpointService) SetCurrentReceptor(ref domain.ArtifactRef) {
	s.record.CurrentReceptor = ref
}

// SetGridReceptor records the receptor version the grid was built on.
func (s *CheckpointService) SetGridReceptor(ref domain.ArtifactRef) {
	s.record.GridReceptor = ref
}

// Save persists the current record.
func (s *CheckpointService) Save(ctx context.Context) error {
	if s.dryRun {
		logger.Debug("Dry run: checkpoint not saved")
		return nil
	}
	if err := s.store.Save(ctx, s.record); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	logger.Debug("Checkpoint saved: %d iterations completed", len(s.record.CompletedIterations))
	return nil
}

// Reset discards persisted state and starts a fresh record.
func (s *CheckpointService) Reset(ctx context.Context) error {
	if !s.dryRun {
		if err := s.store.Reset(ctx); err != nil {
			return fmt.Errorf("reset checkpoint: %w", err)
		}
	}
	s.record, s.loaded = domain.NewCheckpoint(), false
	logger.Info("Checkpoint reset")
	return nil
}

// MarkStageComplete sets a stage flag and persists.
func (s *CheckpointService) MarkStageComplete(ctx context.Context, stage domain.Stage) error {
	s.record.MarkStageComplete(stage)
	return s.Save(ctx)
}

// IsStageComplete reports whether a stage flag is set.
func (s *CheckpointService) IsStageComplete(stage domain.Stage) bool {
	return s.record.IsStageComplete(stage)
}

// MarkIterationComplete records a finished iteration and persists.
// A zero pose marks a rejected candidate.
func (s *CheckpointService) MarkIterationComplete(ctx context.Context, id int, pose, receptor domain.ArtifactRef) error {
	s.record.MarkIterationComplete(id, pose, receptor)
	return s.Save(ctx)
}

// IsIterationComplete reports whether an iteration already ran.
func (s *CheckpointService) IsIterationComplete(id int) bool {
	return s.record.IsIterationComplete(id)
}

// BeginEviction records a decided eviction and persists it before any
// simulation file changes.
func (s *CheckpointService) BeginEviction(ctx context.Context, p domain.PendingEviction) error {
	s.record.BeginEviction(p)
	return s.Save(ctx)
}

// MarkCycleComplete records a finished washing cycle and persists.
func (s *CheckpointService) MarkCycleComplete(ctx context.Context, cycle int, evicted, vanished []int) error {
	s.record.MarkCycleComplete(cycle, evicted, vanished)
	return s.Save(ctx)
}

// Status returns the persisted record without replacing the in-memory one.
func (s *CheckpointService) Status(ctx context.Context) (*domain.Checkpoint, bool, error) {
	cp, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrCheckpointCorrupt):
		return domain.NewCheckpoint(), false, nil
	case err != nil:
		return nil, false, fmt.Errorf("load checkpoint: %w", err)
	}
	if err := cp.Validate(); err != nil {
		return domain.NewCheckpoint(), false, nil
	}
	return cp, true, nil
}
