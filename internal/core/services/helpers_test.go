package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/custodia-labs/wrapshake/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/formats/pdbqt"
)

func atomLine(serial int, name, res string, resSeq int, x, y, z, charge float64, typ string) string {
	return fmt.Sprintf("ATOM  %5d %-4s %-3s A%4d    %8.3f%8.3f%8.3f  1.00  0.00    %6.3f %-2s",
		serial, name, res, resSeq, x, y, z, charge, typ)
}

func mustParse(t *testing.T, lines ...string) domain.Structure {
	t.Helper()
	s, err := pdbqt.ParseBytes([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	return s
}

func atCoord(x, y, z float64) r3.Vec {
	return r3.Vec{X: x, Y: y, Z: z}
}

// receptorLines places n atoms on the x axis, 5 Å apart.
func receptorLines(n int) []string {
	lines := []string{"REMARK  test receptor"}
	for i := 1; i <= n; i++ {
		lines = append(lines, atomLine(i, "CA", "ALA", i, float64(5*(i-1)), 0, 0, 0.25, "C"))
	}
	return lines
}

// poseAt returns a two-atom ligand starting at x, 1.5 Å above the axis.
func poseAt(t *testing.T, x float64) domain.Structure {
	t.Helper()
	return mustParse(t,
		"ROOT",
		atomLine(1, "C1", "UNL", 1, x, 1.5, 0, -0.1, "C"),
		atomLine(2, "O1", "UNL", 1, x+1, 1.5, 0, -0.3, "OA"),
		"ENDROOT",
		"TORSDOF 0",
	)
}

type testRun struct {
	rc          *RunContext
	checkpoints *memory.CheckpointStore
	artifacts   *memory.ArtifactStore
	metrics     *countingMetrics
	receptor    string
	ligand      string
}

func newTestRun(t *testing.T, dryRun bool) *testRun {
	t.Helper()
	dir := t.TempDir()
	receptor := filepath.Join(dir, "receptor.pdbqt")
	ligand := filepath.Join(dir, "ligand.pdbqt")
	require.NoError(t, os.WriteFile(receptor, []byte(strings.Join(receptorLines(10), "\n")+"\n"), 0o644))
	require.NoError(t, os.WriteFile(ligand, []byte("ROOT\nENDROOT\nTORSDOF 0\n"), 0o644))

	run := &testRun{
		checkpoints: memory.NewCheckpointStore(),
		artifacts:   memory.NewArtifactStore(),
		metrics:     &countingMetrics{},
		receptor:    receptor,
		ligand:      ligand,
	}
	run.rc = run.newContext(dryRun)
	return run
}

// newContext returns a fresh context over the same stores, as a new
// process would see them.
func (r *testRun) newContext(dryRun bool) *RunContext {
	return &RunContext{
		Checkpoints: NewCheckpointService(r.checkpoints, dryRun),
		Artifacts:   r.artifacts,
		Metrics:     r.metrics,
		DryRun:      dryRun,
	}
}

type countingMetrics struct {
	accepted, rejected, masked, evicted, invocations int
}

func (m *countingMetrics) PoseAccepted()         { m.accepted++ }
func (m *countingMetrics) PoseRejected()         { m.rejected++ }
func (m *countingMetrics) AtomsMasked(n int)     { m.masked += n }
func (m *countingMetrics) ResiduesEvicted(n int) { m.evicted += n }
func (m *countingMetrics) EngineInvocation(string, time.Duration, error) {
	m.invocations++
}
