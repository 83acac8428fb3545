// Package filesystem stores immutable artifact versions as files under a
// root directory, one sub-directory per artifact kind.
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/wrapshake/internal/atomicfile"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
)

// Extension is appended to every artifact file.
const Extension = ".pdbqt"

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

// Store keeps artifacts at <root>/<kind>/<key>.pdbqt.
type Store struct {
	root string
}

// NewStore creates a store rooted at root. The directory is created lazily.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty artifact directory", domain.ErrConfig)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving artifact directory: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string {
	return s.root
}

// Put writes data under ref unless the same content is already stored.
func (s *Store) Put(ctx context.Context, ref domain.ArtifactRef, data []byte) error {
	if _, err := domain.ParseArtifactRef(ref.String()); err != nil {
		return err
	}
	existing, err := s.Get(ctx, ref)
	switch {
	case err == nil && bytes.Equal(existing, data):
		return nil
	case err == nil:
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, ref)
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	if err := atomicfile.WriteFile(s.Path(ref), data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", ref, err)
	}
	return nil
}

// Get reads the content of ref.
func (s *Store) Get(_ context.Context, ref domain.ArtifactRef) ([]byte, error) {
	data, err := os.ReadFile(s.Path(ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", ref, err)
	}
	return data, nil
}

// Exists reports whether ref is stored.
func (s *Store) Exists(_ context.Context, ref domain.ArtifactRef) (bool, error) {
	_, err := os.Stat(s.Path(ref))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking artifact %s: %w", ref, err)
	}
	return true, nil
}

// Delete removes ref. A missing artifact is not an error.
func (s *Store) Delete(_ context.Context, ref domain.ArtifactRef) error {
	if err := os.Remove(s.Path(ref)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting artifact %s: %w", ref, err)
	}
	return nil
}

// Path returns the file path of ref.
func (s *Store) Path(ref domain.ArtifactRef) string {
	return filepath.Join(s.root, string(ref.Kind()), ref.Key()+Extension)
}
