package domain

import "gonum.org/v1/gonum/spatial/r3"

// DisplacementRecord is the per-residue outcome of one washing cycle.
type DisplacementRecord struct {
	// ResidueID is the ligand residue number.
	ResidueID int

	// Before is the center of mass before equilibration.
	Before r3.Vec

	// After is the center of mass after equilibration.
	After r3.Vec

	// Displacement is the scaled distance between Before and After.
	Displacement float64

	// Evicted is the verdict against the cutoff.
	Evicted bool
}

// Evicts reports whether a displacement exceeds the cutoff.
// A displacement equal to the cutoff is kept.
func Evicts(displacement, cutoff float64) bool {
	return displacement > cutoff
}
