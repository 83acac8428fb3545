package domain

import "gonum.org/v1/gonum/spatial/r3"

// Record is one line of a fixed-column structure file.
// Atom is nil for non-atom lines (REMARK, ROOT, TORSDOF, END...).
type Record struct {
	// Line is the original text without the trailing newline.
	Line string

	// Atom is the parsed atom, if the line is an ATOM/HETATM record.
	Atom *AtomRecord

	// Dirty marks an atom whose type or charge changed since parsing.
	// Writers re-render only the affected columns of dirty records.
	Dirty bool
}

// Structure is an ordered sequence of records. Values are treated as
// immutable: operations that change atoms return a new Structure.
type Structure struct {
	Records []Record
}

// Atoms returns the parsed atoms in file order.
func (s Structure) Atoms() []AtomRecord {
	atoms := make([]AtomRecord, 0, len(s.Records))
	for _, r := range s.Records {
		if r.Atom != nil {
			atoms = append(atoms, *r.Atom)
		}
	}
	return atoms
}

// AtomCount returns the number of atom records.
func (s Structure) AtomCount() int {
	n := 0
	for _, r := range s.Records {
		if r.Atom != nil {
			n++
		}
	}
	return n
}

// Clone returns a deep copy; atoms are copied so the clone can be edited freely.
func (s Structure) Clone() Structure {
	out := Structure{Records: make([]Record, len(s.Records))}
	for i, r := range s.Records {
		out.Records[i] = r
		if r.Atom != nil {
			a := *r.Atom
			out.Records[i].Atom = &a
		}
	}
	return out
}

// LigandPose is one extracted docking pose.
type LigandPose struct {
	// Iteration is the seed that produced the pose.
	Iteration int

	// Ref points at the stored pose artifact once accepted.
	Ref ArtifactRef

	// Structure holds the pose records (atoms plus torsion tree lines).
	Structure Structure
}

// Atoms returns the pose atoms.
func (p LigandPose) Atoms() []AtomRecord {
	return p.Structure.Atoms()
}

// CenterOfMass returns the pose centroid.
func (p LigandPose) CenterOfMass() (r3.Vec, bool) {
	return CenterOfMass(p.Atoms())
}
