// Package file provides a JSON file implementation of the checkpoint store.
//
// The record is rewritten in full after every state change using
// write-then-replace, so a crash leaves either the previous or the new
// record on disk, never a mix.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/wrapshake/internal/atomicfile"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore keeps the checkpoint as an indented JSON file.
type CheckpointStore struct {
	mu   sync.Mutex
	path string
}

// NewCheckpointStore creates a store writing to path.
func NewCheckpointStore(path string) (*CheckpointStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty checkpoint path", domain.ErrConfig)
	}
	return &CheckpointStore{path: filepath.Clean(path)}, nil
}

// Path returns the checkpoint file path.
func (s *CheckpointStore) Path() string {
	return s.path
}

// Load reads and decodes the record.
func (s *CheckpointStore) Load(_ context.Context) (*domain.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCheckpointCorrupt, s.path, err)
	}
	return &cp, nil
}

// Save encodes and atomically replaces the record.
func (s *CheckpointStore) Save(_ context.Context, cp *domain.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling checkpoint: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	return atomicfile.WriteFile(s.path, data, 0o644)
}

// Reset removes the checkpoint file.
func (s *CheckpointStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}
