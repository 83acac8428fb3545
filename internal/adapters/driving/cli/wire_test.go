package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wrapshake/internal/adapters/driven/config"
	"github.com/custodia-labs/wrapshake/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = dir
	cfg.Paths.ArtifactDir = filepath.Join(dir, "artifacts")
	cfg.Checkpoint.Path = filepath.Join(dir, "checkpoint.json")
	return cfg
}

func TestWire_FileBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Textfile = filepath.Join(cfg.Paths.OutputDir, "wrapshake.prom")

	s, err := Wire(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)

	assert.NotNil(t, s.Docking)
	assert.NotNil(t, s.Washing)
	assert.NotNil(t, s.Status)
	assert.NotNil(t, s.Assembler)
	assert.NotNil(t, s.Setup)
	assert.Equal(t, cfg.Checkpoint.Path, s.CheckpointPath)

	_, found, err := s.Status.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, s.Reset(context.Background()))

	require.NoError(t, s.Close())
	data, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `wrapshake_poses_accepted_total{run="default"} 0`)
}

func TestWire_SQLiteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoint.Backend = config.BackendSQLite
	cfg.Checkpoint.Path = filepath.Join(cfg.Paths.OutputDir, "checkpoint.db")

	s, err := Wire(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Status.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.FileExists(t, cfg.Checkpoint.Path)
}

func TestWire_DryRunCreatesNoCheckpointDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoint.Backend = config.BackendSQLite
	cfg.Checkpoint.Path = filepath.Join(cfg.Paths.OutputDir, "checkpoint.db")

	s, err := Wire(context.Background(), cfg, RunOptions{DryRun: true, Out: &bytes.Buffer{}})
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Status.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoFileExists(t, cfg.Checkpoint.Path)
}

func TestWire_DryRunPlansFromPersistedCheckpoint(t *testing.T) {
	cfg := testConfig(t)
	persisted := domain.NewCheckpoint()
	persisted.MarkIterationComplete(1, domain.IterationRef(domain.ArtifactPose, persisted.RunID, 1),
		domain.IterationRef(domain.ArtifactReceptor, persisted.RunID, 1))
	store, err := file.NewCheckpointStore(cfg.Checkpoint.Path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), persisted))
	before, err := os.ReadFile(cfg.Checkpoint.Path)
	require.NoError(t, err)

	s, err := Wire(context.Background(), cfg, RunOptions{DryRun: true, Out: &bytes.Buffer{}})
	require.NoError(t, err)
	defer s.Close()

	cp, found, err := s.Status.Status(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, persisted.RunID, cp.RunID)
	assert.Equal(t, 1, cp.SuccessCount)

	require.NoError(t, s.Reset(context.Background()))
	after, err := os.ReadFile(cfg.Checkpoint.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestWire_VinaEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.Docking.Engine = config.EngineVina
	cfg.Docking.NeutralType = config.DefaultVinaNeutralType

	s, err := Wire(context.Background(), cfg, RunOptions{})
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestWire_VinaRejectsCustomNeutralType(t *testing.T) {
	cfg := testConfig(t)
	cfg.Docking.Engine = config.EngineVina
	cfg.Docking.NeutralType = "X"

	_, err := Wire(context.Background(), cfg, RunOptions{})

	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestWire_UnknownEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.Docking.Engine = "gold"

	_, err := Wire(context.Background(), cfg, RunOptions{})

	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestWire_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoint.Backend = "redis"

	_, err := Wire(context.Background(), cfg, RunOptions{})

	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestWire_BadGrid(t *testing.T) {
	cfg := testConfig(t)
	cfg.Grid.Npts = []int{60, 0, 60}

	_, err := Wire(context.Background(), cfg, RunOptions{})

	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestNewRunner_DryRunThroughWSL(t *testing.T) {
	var out bytes.Buffer
	runner := newRunner(config.EnginesConfig{Platform: config.PlatformWSL, WSLDistro: "Ubuntu"},
		RunOptions{DryRun: true, Out: &out}, nil)

	outcome, err := runner.Run(context.Background(), driven.Command{
		Name: "autogrid4",
		Args: []string{"-p", "autogrid.gpf"},
		Dir:  `C:\runs\a`,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, outcome.ExitCode)
	assert.Contains(t, out.String(), "[dry-run] wsl -d Ubuntu bash -c")
	assert.Contains(t, out.String(), "/mnt/c/runs/a")
}

func TestNewRunner_DryRunLocal(t *testing.T) {
	var out bytes.Buffer
	runner := newRunner(config.EnginesConfig{Platform: config.PlatformLocal}, RunOptions{DryRun: true, Out: &out}, nil)

	_, err := runner.Run(context.Background(), driven.Command{Name: "gmx", Args: []string{"mdrun", "-deffnm", "wash_1"}})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "[dry-run] gmx mdrun -deffnm wash_1")
}
