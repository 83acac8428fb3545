package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/messages"
)

// Watcher reports writes to a checkpoint file.
//
// The parent directory is watched rather than the file itself: the JSON
// store replaces the file on every save, which would drop a file watch,
// and the SQLite store writes to -wal and -journal siblings.
type Watcher struct {
	path string
	fs   *fsnotify.Watcher
}

// NewWatcher starts watching the directory of path, creating it if needed.
func NewWatcher(path string) (*Watcher, error) {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return &Watcher{path: path, fs: fw}, nil
}

// Next returns a command that blocks until the checkpoint changes, the
// watcher fails or it is closed.
func (w *Watcher) Next() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.fs.Events:
				if !ok {
					return messages.WatchClosed{}
				}
				if w.relevant(ev) {
					return messages.CheckpointChanged{Path: ev.Name}
				}
			case err, ok := <-w.fs.Errors:
				if !ok {
					return messages.WatchClosed{}
				}
				return messages.WatchFailed{Err: err}
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !strings.HasPrefix(filepath.Clean(ev.Name), w.path) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
