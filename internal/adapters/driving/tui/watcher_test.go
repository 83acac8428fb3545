package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/messages"
)

func nextWithin(t *testing.T, cmd tea.Cmd, d time.Duration) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(d):
		t.Fatal("no watcher event")
		return nil
	}
}

func TestWatcher_ReportsCheckpointWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "checkpoint.json")
	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "unrelated.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	msg := nextWithin(t, w.Next(), 5*time.Second)
	changed, ok := msg.(messages.CheckpointChanged)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, path, filepath.Clean(changed.Path))
}

func TestWatcher_CloseStopsEvents(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "checkpoint.db"))
	require.NoError(t, err)

	cmd := w.Next()
	require.NoError(t, w.Close())

	assert.Equal(t, messages.WatchClosed{}, nextWithin(t, cmd, 5*time.Second))
}
