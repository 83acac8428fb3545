package driving

import (
	"context"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// StatusReporter exposes persisted progress without running anything.
type StatusReporter interface {
	// Status returns the persisted record, or a fresh one and false.
	Status(ctx context.Context) (*domain.Checkpoint, bool, error)
}

// ComplexAssembler merges the receptor and accepted poses.
type ComplexAssembler interface {
	// Assemble writes the combined structure and returns its reference.
	Assemble(ctx context.Context) (*AssembleSummary, error)
}

// AssembleSummary reports an assembled complex.
type AssembleSummary struct {
	// Ref is the stored complex artifact.
	Ref domain.ArtifactRef

	// Path is where the complex can be read.
	Path string

	// Ligands is the number of poses included.
	Ligands int

	// Atoms is the total atom count.
	Atoms int
}

// SetupValidator checks inputs before any engine runs.
type SetupValidator interface {
	// Validate returns human-readable issues. An empty result means the
	// setup looks usable.
	Validate(ctx context.Context) ([]string, error)
}
