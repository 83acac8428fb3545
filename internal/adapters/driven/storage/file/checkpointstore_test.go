package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

func newStore(t *testing.T) *CheckpointStore {
	t.Helper()
	store, err := NewCheckpointStore(filepath.Join(t.TempDir(), "out", "checkpoint.json"))
	require.NoError(t, err)
	return store
}

func TestNewCheckpointStore_EmptyPath(t *testing.T) {
	_, err := NewCheckpointStore("")
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestCheckpointStore_LoadMissing(t *testing.T) {
	store := newStore(t)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckpointStore_SaveLoad(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	cp := domain.NewCheckpoint()
	cp.MarkStageComplete(domain.StageGrid)
	cp.MarkIterationComplete(11, "pose/11", "receptor/11")
	cp.MarkIterationComplete(12, "", "receptor/11")

	require.NoError(t, store.Save(ctx, cp))
	loaded, err := store.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, cp, loaded)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"accepted_poses": [`)
	assert.Contains(t, string(data), `"pose/11"`)
}

func TestCheckpointStore_NoTempFilesLeft(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	cp := domain.NewCheckpoint()

	for i := 1; i <= 3; i++ {
		cp.MarkIterationComplete(i, "", "receptor/initial")
		require.NoError(t, store.Save(ctx, cp))
	}

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "checkpoint.json", entries[0].Name())
}

func TestCheckpointStore_Corrupt(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"run_id": `), 0o644))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCheckpointCorrupt)
}

func TestCheckpointStore_Reset(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewCheckpoint()))
	require.NoError(t, store.Reset(ctx))

	_, err := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Reset(ctx))
}
