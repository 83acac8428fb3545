package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore is an in-memory implementation of driven.ArtifactStore.
type ArtifactStore struct {
	mu        sync.RWMutex
	artifacts map[domain.ArtifactRef][]byte
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		artifacts: make(map[domain.ArtifactRef][]byte),
	}
}

// Put stores data under ref.
func (s *ArtifactStore) Put(_ context.Context, ref domain.ArtifactRef, data []byte) error {
	if ref.IsZero() {
		return fmt.Errorf("%w: empty artifact ref", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.artifacts[ref]; ok {
		if bytes.Equal(existing, data) {
			return nil
		}
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, ref)
	}
	s.artifacts[ref] = append([]byte(nil), data...)
	return nil
}

// Get retrieves the content of ref.
func (s *ArtifactStore) Get(_ context.Context, ref domain.ArtifactRef) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.artifacts[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
	}
	return append([]byte(nil), data...), nil
}

// Exists reports whether ref is stored.
func (s *ArtifactStore) Exists(_ context.Context, ref domain.ArtifactRef) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.artifacts[ref]
	return ok, nil
}

// Delete removes an artifact. Deleting a missing artifact is not an error.
func (s *ArtifactStore) Delete(_ context.Context, ref domain.ArtifactRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.artifacts, ref)
	return nil
}

// Path returns a pseudo-path naming ref.
func (s *ArtifactStore) Path(ref domain.ArtifactRef) string {
	return "memory://" + ref.String()
}

// Refs returns all stored refs in sorted order.
func (s *ArtifactStore) Refs() []domain.ArtifactRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make([]domain.ArtifactRef, 0, len(s.artifacts))
	for ref := range s.artifacts {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}
