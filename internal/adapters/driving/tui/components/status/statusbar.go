// Package status provides the watch view footer.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/styles"
)

// State represents what the watcher is doing.
type State string

const (
	StateWatching   State = "watching"
	StateRefreshing State = "refreshing"
	StateError      State = "error"
	StateStopped    State = "stopped"
)

// Bar displays watcher state, the last refresh time and key hints.
type Bar struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	state     State
	message   string
	refreshed time.Time
	width     int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateWatching,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Render(left + strings.Repeat(" ", padding) + right)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateRefreshing:
		return s.styles.Muted.Render("Reading checkpoint...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateStopped:
		return s.styles.Warning.Render("Watcher stopped")
	case StateWatching:
		if !s.refreshed.IsZero() {
			return s.styles.Muted.Render("Updated " + s.refreshed.Format(time.TimeOnly))
		}
	}
	return s.styles.Muted.Render("Watching")
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error message shown in StateError.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// MarkRefreshed records a successful re-read and returns to watching.
func (s *Bar) MarkRefreshed(at time.Time) {
	s.refreshed = at
	s.state = StateWatching
	s.message = ""
}

// Refreshed returns the time of the last successful re-read.
func (s *Bar) Refreshed() time.Time {
	return s.refreshed
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
