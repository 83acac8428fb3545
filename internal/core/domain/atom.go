package domain

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultNeutralType is the atom type written over masked receptor atoms.
// Docking parameter files define it with zero interaction energy.
const DefaultNeutralType = "X"

// AtomRecord is one parsed atom of a fixed-column structure file.
// Only Type and Charge are ever rewritten, and only through Masked.
type AtomRecord struct {
	// Serial is the atom serial number.
	Serial int

	// Name is the atom name (e.g., "CA").
	Name string

	// ResidueName is the owning residue name (e.g., "LIG").
	ResidueName string

	// ResidueID is the owning residue sequence number.
	ResidueID int

	// Coord is the atom position in the file's native units.
	Coord r3.Vec

	// Type is the docking atom type tag (e.g., "OA", "HD").
	Type string

	// Charge is the partial charge. Only meaningful when HasCharge is set.
	Charge float64

	// HasCharge reports whether the source record carried a charge column.
	HasCharge bool
}

// DistanceTo returns the Euclidean distance between two atoms.
func (a AtomRecord) DistanceTo(b AtomRecord) float64 {
	return r3.Norm(r3.Sub(a.Coord, b.Coord))
}

// Masked returns a copy with the neutral type and a zero charge.
func (a AtomRecord) Masked(neutralType string) AtomRecord {
	a.Type = neutralType
	a.Charge = 0
	a.HasCharge = true
	return a
}

// IsMasked reports whether the atom carries the neutral type.
func (a AtomRecord) IsMasked(neutralType string) bool {
	return a.Type == neutralType
}

// CenterOfMass returns the unweighted centroid of atoms.
// The second result is false for an empty slice.
func CenterOfMass(atoms []AtomRecord) (r3.Vec, bool) {
	if len(atoms) == 0 {
		return r3.Vec{}, false
	}
	var sum r3.Vec
	for _, a := range atoms {
		sum = r3.Add(sum, a.Coord)
	}
	return r3.Scale(1/float64(len(atoms)), sum), true
}

// MinDistance returns the smallest pairwise distance between two atom sets.
// The second result is false when either set is empty.
func MinDistance(a, b []AtomRecord) (float64, bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}
	best := -1.0
	for i := range a {
		for j := range b {
			d := a[i].DistanceTo(b[j])
			if best < 0 || d < best {
				best = d
			}
		}
	}
	return best, true
}
