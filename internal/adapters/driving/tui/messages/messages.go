// Package messages defines Bubbletea message types for the watch view.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// CheckpointLoaded carries a freshly read progress record.
type CheckpointLoaded struct {
	Checkpoint *domain.Checkpoint
	Found      bool
	Err        error
	At         time.Time
}

// CheckpointChanged is sent when the checkpoint file was written.
type CheckpointChanged struct {
	Path string
}

// RefreshDue is sent when a throttled re-read may run.
type RefreshDue struct{}

// WatchFailed signals that the file watcher reported an error.
type WatchFailed struct {
	Err error
}

// WatchClosed signals that the file watcher stopped delivering events.
type WatchClosed struct{}
