package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/formats/pdbqt"
)

func TestAssembleComplex(t *testing.T) {
	receptor := mustParse(t, receptorLines(3)...)
	ligands := []domain.Structure{poseAt(t, 0), poseAt(t, 20)}

	out := AssembleComplex(receptor, ligands, "LIG")

	atoms := out.Atoms()
	require.Len(t, atoms, 7)
	for i, a := range atoms {
		assert.Equal(t, i+1, a.Serial)
	}
	assert.Equal(t, "END", out.Records[len(out.Records)-1].Line)

	reparsed, err := pdbqt.ParseBytes(pdbqt.Marshal(out))
	require.NoError(t, err)
	got := reparsed.Atoms()
	require.Len(t, got, 7)
	assert.Equal(t, 7, got[6].Serial)
	assert.Equal(t, "LIG", got[3].ResidueName)
	assert.Equal(t, 4, got[3].ResidueID)
	assert.Equal(t, 5, got[5].ResidueID)
	assert.Equal(t, "OA", got[6].Type)
	assert.NotContains(t, string(pdbqt.Marshal(out)), "ROOT")
}

func TestComplexService_Assemble(t *testing.T) {
	run := newTestRun(t, false)
	engine := &fakeDockingEngine{poses: spreadPoses(t, 1, 2)}
	_, err := NewDockingController(run.rc, engine, dockingOptions(run, []int{1, 2}, 20)).Run(context.Background())
	require.NoError(t, err)

	summary, err := NewComplexService(run.newContext(false), "LIG").Assemble(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Ligands)
	assert.Equal(t, 14, summary.Atoms)
	assert.True(t, strings.HasPrefix(summary.Ref.String(), "complex/"))

	data, err := run.artifacts.Get(context.Background(), summary.Ref)
	require.NoError(t, err)
	complexStructure, err := pdbqt.ParseBytes(data)
	require.NoError(t, err)
	for _, a := range complexStructure.Atoms() {
		assert.NotEqual(t, "X", a.Type, "complex uses the unmasked receptor")
	}
}

func TestComplexService_NoPoses(t *testing.T) {
	run := newTestRun(t, false)

	_, err := NewComplexService(run.rc, "LIG").Assemble(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
