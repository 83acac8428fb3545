package driven

import (
	"context"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// CheckpointStore persists the run progress record.
type CheckpointStore interface {
	// Load retrieves the persisted record.
	// Returns domain.ErrNotFound when nothing is stored and
	// domain.ErrCheckpointCorrupt when the stored data cannot be decoded.
	Load(ctx context.Context) (*domain.Checkpoint, error)

	// Save durably replaces the stored record.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Reset discards the stored record. Resetting an empty store is not an error.
	Reset(ctx context.Context) error
}
