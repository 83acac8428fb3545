package services

import (
	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// MaskReceptor returns a new receptor version in which every atom closer
// than cutoff to any ligand atom carries the neutral type and a zero charge.
// Non-atom records and distant atoms pass through untouched. Atoms masked in
// an earlier version stay masked. The second result counts atoms that were
// not already neutral.
func MaskReceptor(receptor domain.Structure, ligands [][]domain.AtomRecord, cutoff float64, neutralType string) (domain.Structure, int) {
	out := receptor.Clone()
	changed := 0
	for i, rec := range out.Records {
		if rec.Atom == nil || !withinAny(*rec.Atom, ligands, cutoff) {
			continue
		}
		wasMasked := rec.Atom.IsMasked(neutralType) && rec.Atom.Charge == 0
		masked := rec.Atom.Masked(neutralType)
		out.Records[i].Atom = &masked
		out.Records[i].Dirty = true
		if !wasMasked {
			changed++
		}
	}
	return out, changed
}

// withinAny reports whether atom is strictly closer than cutoff to any ligand atom.
func withinAny(atom domain.AtomRecord, ligands [][]domain.AtomRecord, cutoff float64) bool {
	for _, ligand := range ligands {
		for _, l := range ligand {
			if atom.DistanceTo(l) < cutoff {
				return true
			}
		}
	}
	return false
}
