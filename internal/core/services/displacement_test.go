package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

func ligandResidue(id int, x float64) []domain.AtomRecord {
	return []domain.AtomRecord{
		{Name: "C1", ResidueName: "LIG", ResidueID: id, Coord: atCoord(x, 0, 0)},
		{Name: "C2", ResidueName: "LIG", ResidueID: id, Coord: atCoord(x+2, 0, 0)},
	}
}

func TestComputeDisplacements_Scenario(t *testing.T) {
	protein := domain.AtomRecord{Name: "CA", ResidueName: "ALA", ResidueID: 10}
	var before, after []domain.AtomRecord
	before = append(before, protein)
	after = append(after, protein)
	for id, shift := range map[int]float64{1: 2.0, 2: 6.5, 3: 7.1} {
		before = append(before, ligandResidue(id, 0)...)
		after = append(after, ligandResidue(id, shift)...)
	}

	records, vanished := ComputeDisplacements(before, after, "LIG", 1, 6.0)

	require.Len(t, records, 3)
	assert.Empty(t, vanished)
	assert.Equal(t, []int{1, 2, 3}, []int{records[0].ResidueID, records[1].ResidueID, records[2].ResidueID})
	assert.InDelta(t, 2.0, records[0].Displacement, 1e-9)
	assert.InDelta(t, 6.5, records[1].Displacement, 1e-9)
	assert.InDelta(t, 7.1, records[2].Displacement, 1e-9)
	assert.Equal(t, []int{2, 3}, Evicted(records))
}

func TestComputeDisplacements_Boundary(t *testing.T) {
	before := append(ligandResidue(1, 0), ligandResidue(2, 0)...)
	after := append(ligandResidue(1, 6), ligandResidue(2, 6+1e-9)...)

	records, _ := ComputeDisplacements(before, after, "LIG", 1, 6.0)

	require.Len(t, records, 2)
	assert.False(t, records[0].Evicted, "equal to cutoff is kept")
	assert.True(t, records[1].Evicted, "just above cutoff is evicted")
}

func TestComputeDisplacements_Scale(t *testing.T) {
	before := ligandResidue(1, 0)
	after := ligandResidue(1, 0.7)

	records, _ := ComputeDisplacements(before, after, "LIG", 10, 6.0)

	require.Len(t, records, 1)
	assert.InDelta(t, 7.0, records[0].Displacement, 1e-9)
	assert.True(t, records[0].Evicted)
}

func TestComputeDisplacements_VanishedResidue(t *testing.T) {
	before := append(ligandResidue(1, 0), ligandResidue(2, 0)...)
	after := ligandResidue(1, 50)

	records, vanished := ComputeDisplacements(before, after, "LIG", 1, 6.0)

	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].ResidueID)
	assert.Equal(t, []int{2}, vanished)
	assert.Equal(t, []int{1}, Evicted(records))
}

func TestComputeDisplacements_IgnoresOtherResidues(t *testing.T) {
	before := []domain.AtomRecord{{ResidueName: "SOL", ResidueID: 1}}
	after := []domain.AtomRecord{{ResidueName: "SOL", ResidueID: 1, Coord: atCoord(100, 0, 0)}}

	records, vanished := ComputeDisplacements(before, after, "LIG", 1, 6.0)

	assert.Empty(t, records)
	assert.Empty(t, vanished)
}
