package services

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/formats/gro"
)

// ComputeDisplacements compares each ligand residue's center of mass before
// and after equilibration. Distances are multiplied by scale before the
// cutoff test. Residues missing from after are returned as vanished and
// get no record. Records are sorted by residue id.
func ComputeDisplacements(before, after []domain.AtomRecord, resName string, scale, cutoff float64) ([]domain.DisplacementRecord, []int) {
	initial := gro.ResidueAtoms(before, resName)
	final := gro.ResidueAtoms(after, resName)

	ids := make([]int, 0, len(initial))
	for id := range initial {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var records []domain.DisplacementRecord
	var vanished []int
	for _, id := range ids {
		atomsAfter, ok := final[id]
		if !ok || len(atomsAfter) == 0 {
			vanished = append(vanished, id)
			continue
		}
		com0, ok0 := domain.CenterOfMass(initial[id])
		com1, ok1 := domain.CenterOfMass(atomsAfter)
		if !ok0 || !ok1 {
			vanished = append(vanished, id)
			continue
		}
		d := r3.Norm(r3.Sub(com1, com0)) * scale
		records = append(records, domain.DisplacementRecord{
			ResidueID:    id,
			Before:       com0,
			After:        com1,
			Displacement: d,
			Evicted:      domain.Evicts(d, cutoff),
		})
	}
	return records, vanished
}

// Evicted returns the residue ids marked for eviction, in order.
func Evicted(records []domain.DisplacementRecord) []int {
	var ids []int
	for _, r := range records {
		if r.Evicted {
			ids = append(ids, r.ResidueID)
		}
	}
	return ids
}
