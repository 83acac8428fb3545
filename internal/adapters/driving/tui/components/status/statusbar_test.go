package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateWatching, bar.State())
	assert.Empty(t, bar.Message())
	assert.True(t, bar.Refreshed().IsZero())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*Bar)
		want    string
	}{
		{"watching", func(*Bar) {}, "Watching"},
		{"refreshing", func(b *Bar) { b.SetState(StateRefreshing) }, "Reading checkpoint..."},
		{"error with message", func(b *Bar) {
			b.SetState(StateError)
			b.SetMessage("permission denied")
		}, "Error: permission denied"},
		{"error without message", func(b *Bar) { b.SetState(StateError) }, "Error"},
		{"stopped", func(b *Bar) { b.SetState(StateStopped) }, "Watcher stopped"},
		{"refreshed", func(b *Bar) {
			b.MarkRefreshed(time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC))
		}, "Updated 14:05:09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			tt.prepare(bar)

			view := bar.View()
			assert.Contains(t, view, tt.want)
			assert.Contains(t, view, "r: refresh")
			assert.Contains(t, view, "q: quit")
		})
	}
}

func TestStatusBar_MarkRefreshedClearsError(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")

	at := time.Now()
	bar.MarkRefreshed(at)

	assert.Equal(t, StateWatching, bar.State())
	assert.Empty(t, bar.Message())
	assert.Equal(t, at, bar.Refreshed())
}

func TestStatusBar_SetWidth(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetWidth(120)

	assert.Equal(t, 120, bar.Width())
}
