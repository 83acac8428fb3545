package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ArtifactKind groups stored artifacts.
type ArtifactKind string

// Artifact kinds.
const (
	ArtifactReceptor ArtifactKind = "receptor"
	ArtifactPose     ArtifactKind = "pose"
	ArtifactComplex  ArtifactKind = "complex"
)

// InitialReceptorKey is the key suffix of the unmasked receptor version.
const InitialReceptorKey = "initial"

// ArtifactRef references an immutable stored artifact as "kind/key".
// The zero value means "no artifact".
type ArtifactRef string

// NewArtifactRef builds a reference from its parts.
func NewArtifactRef(kind ArtifactKind, key string) ArtifactRef {
	return ArtifactRef(string(kind) + "/" + key)
}

// Artifacts are immutable, so every key of a run carries its run id. A
// reset or a fresh start after a corrupt checkpoint never collides with
// versions left by an earlier run in the same store.

// InitialReceptorRef builds the reference of the unmasked receptor of a run.
func InitialReceptorRef(runID string) ArtifactRef {
	return NewArtifactRef(ArtifactReceptor, runID+"-"+InitialReceptorKey)
}

// IterationRef builds the reference for an artifact produced by an iteration
// of a run.
func IterationRef(kind ArtifactKind, runID string, iteration int) ArtifactRef {
	return NewArtifactRef(kind, runID+"-"+strconv.Itoa(iteration))
}

// ParseArtifactRef validates s and returns it as a reference.
func ParseArtifactRef(s string) (ArtifactRef, error) {
	kind, key, ok := strings.Cut(s, "/")
	if !ok || kind == "" || key == "" || strings.ContainsAny(key, `/\`) || key == ".." || key == "." {
		return "", fmt.Errorf("%w: artifact reference %q", ErrInvalidInput, s)
	}
	return ArtifactRef(s), nil
}

// IsZero reports whether the reference is empty.
func (r ArtifactRef) IsZero() bool {
	return r == ""
}

// Kind returns the artifact kind.
func (r ArtifactRef) Kind() ArtifactKind {
	kind, _, _ := strings.Cut(string(r), "/")
	return ArtifactKind(kind)
}

// Key returns the artifact key within its kind.
func (r ArtifactRef) Key() string {
	_, key, _ := strings.Cut(string(r), "/")
	return key
}

func (r ArtifactRef) String() string {
	return string(r)
}
