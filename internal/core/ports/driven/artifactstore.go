package driven

import (
	"context"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// ArtifactStore keeps immutable receptor, pose and complex versions.
type ArtifactStore interface {
	// Put stores data under ref. Storing identical content again is a no-op;
	// different content under an existing ref returns domain.ErrAlreadyExists.
	Put(ctx context.Context, ref domain.ArtifactRef, data []byte) error

	// Get retrieves the content of ref.
	// Returns domain.ErrNotFound if the artifact does not exist.
	Get(ctx context.Context, ref domain.ArtifactRef) ([]byte, error)

	// Exists reports whether ref is stored.
	Exists(ctx context.Context, ref domain.ArtifactRef) (bool, error)

	// Delete removes an artifact. Only used to discard versions that no
	// persisted checkpoint references.
	Delete(ctx context.Context, ref domain.ArtifactRef) error

	// Path returns a filesystem path engines can read ref from.
	Path(ref domain.ArtifactRef) string
}
