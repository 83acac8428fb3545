// Package domain defines the core entities for wrapshake.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - AtomRecord: One atom of a fixed-column structure file
//   - Structure: An ordered record sequence (receptor, pose, complex)
//   - LigandPose: One extracted docking pose
//   - Checkpoint: The durable, resumable progress record
//   - DisplacementRecord: A per-residue washing cycle verdict
//   - ArtifactRef: A reference to an immutable stored artifact
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, gonum spatial/r3, google/uuid
//   - Cannot Import: Any internal/ package
package domain
