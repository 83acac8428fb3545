package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func atomAt(serial int, x, y, z float64) AtomRecord {
	return AtomRecord{Serial: serial, Name: "C", ResidueName: "LIG", ResidueID: 1, Coord: r3.Vec{X: x, Y: y, Z: z}, Type: "C"}
}

func TestAtomRecord_DistanceTo(t *testing.T) {
	a := atomAt(1, 0, 0, 0)
	b := atomAt(2, 3, 4, 0)

	assert.InDelta(t, 5.0, a.DistanceTo(b), 1e-12)
	assert.InDelta(t, 5.0, b.DistanceTo(a), 1e-12)
}

func TestAtomRecord_Masked(t *testing.T) {
	a := atomAt(1, 0, 0, 0)
	a.Type = "OA"
	a.Charge = -0.39

	m := a.Masked(DefaultNeutralType)

	assert.Equal(t, "X", m.Type)
	assert.Zero(t, m.Charge)
	assert.True(t, m.HasCharge)
	assert.True(t, m.IsMasked(DefaultNeutralType))
	// original untouched
	assert.Equal(t, "OA", a.Type)
	assert.Equal(t, -0.39, a.Charge)
}

func TestCenterOfMass(t *testing.T) {
	atoms := []AtomRecord{atomAt(1, 0, 0, 0), atomAt(2, 2, 0, 0), atomAt(3, 1, 3, 0)}

	c, ok := CenterOfMass(atoms)

	require.True(t, ok)
	assert.InDelta(t, 1.0, c.X, 1e-12)
	assert.InDelta(t, 1.0, c.Y, 1e-12)
	assert.InDelta(t, 0.0, c.Z, 1e-12)
}

func TestCenterOfMass_Empty(t *testing.T) {
	_, ok := CenterOfMass(nil)
	assert.False(t, ok)
}

func TestMinDistance(t *testing.T) {
	a := []AtomRecord{atomAt(1, 0, 0, 0), atomAt(2, 10, 0, 0)}
	b := []AtomRecord{atomAt(3, 11.8, 0, 0), atomAt(4, 20, 0, 0)}

	d, ok := MinDistance(a, b)

	require.True(t, ok)
	assert.InDelta(t, 1.8, d, 1e-9)
}

func TestMinDistance_Empty(t *testing.T) {
	_, ok := MinDistance(nil, []AtomRecord{atomAt(1, 0, 0, 0)})
	assert.False(t, ok)
}

func TestStructure_AtomsAndClone(t *testing.T) {
	a := atomAt(1, 1, 2, 3)
	s := Structure{Records: []Record{
		{Line: "REMARK test"},
		{Line: "ATOM ...", Atom: &a},
		{Line: "END"},
	}}

	assert.Equal(t, 1, s.AtomCount())
	assert.Len(t, s.Atoms(), 1)

	c := s.Clone()
	c.Records[1].Atom.Type = "X"
	assert.Equal(t, "C", s.Records[1].Atom.Type)
}

func TestEvicts_Boundary(t *testing.T) {
	assert.False(t, Evicts(6.0, 6.0))
	assert.True(t, Evicts(6.0+1e-9, 6.0))
	assert.False(t, Evicts(2.0, 6.0))
}

func TestLigandPose_CenterOfMass(t *testing.T) {
	a, b := atomAt(1, 0, 0, 0), atomAt(2, 0, 0, 4)
	p := LigandPose{Structure: Structure{Records: []Record{{Atom: &a}, {Atom: &b}}}}

	c, ok := p.CenterOfMass()

	require.True(t, ok)
	assert.InDelta(t, 2.0, c.Z, 1e-12)
}
