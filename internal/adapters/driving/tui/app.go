package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// DefaultRefreshInterval is the minimum time between checkpoint re-reads.
const DefaultRefreshInterval = 500 * time.Millisecond

const maxBarWidth = 60

// Options configures the watch view.
type Options struct {
	// Targets scale the progress bars.
	Targets Targets

	// Watcher delivers checkpoint change events. Nil disables live updates.
	Watcher *Watcher

	// RefreshInterval throttles re-reads. Zero uses DefaultRefreshInterval.
	RefreshInterval time.Duration
}

// App is the watch view following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports   *Ports
	ctx     context.Context
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	targets Targets
	watcher *Watcher

	// limiter throttles re-reads; a burst of saves collapses into one.
	limiter *rate.Limiter
	pending bool

	spinner spinner.Model
	docking progress.Model
	washing progress.Model
	bar     *status.Bar

	checkpoint *domain.Checkpoint
	found      bool
	showHelp   bool
}

// NewApp creates the watch view.
func NewApp(ctx context.Context, ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	theme := s.Theme()

	return &App{
		ports:   ports,
		ctx:     ctx,
		styles:  s,
		keymap:  km,
		targets: opts.Targets,
		watcher: opts.Watcher,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary)),
		),
		docking: progress.New(
			progress.WithSolidFill(string(theme.Primary)),
			progress.WithWidth(maxBarWidth),
		),
		washing: progress.New(
			progress.WithSolidFill(string(theme.Secondary)),
			progress.WithWidth(maxBarWidth),
		),
		bar: status.NewBar(s, km),
	}, nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		a.load(),
		a.watch(),
		tea.SetWindowTitle("wrapshake status"),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := msg.Width - 4
		if w > maxBarWidth {
			w = maxBarWidth
		}
		if w > 0 {
			a.docking.Width = w
			a.washing.Width = w
		}
		a.bar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		switch {
		case keymap.Matches(msg.String(), a.keymap.Quit):
			return a, tea.Quit
		case keymap.Matches(msg.String(), a.keymap.Refresh):
			a.bar.SetState(status.StateRefreshing)
			return a, a.load()
		case keymap.Matches(msg.String(), a.keymap.Help):
			a.showHelp = !a.showHelp
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case messages.CheckpointLoaded:
		if msg.Err != nil {
			a.bar.SetState(status.StateError)
			a.bar.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.checkpoint, a.found = msg.Checkpoint, msg.Found
		a.bar.MarkRefreshed(msg.At)
		return a, nil

	case messages.CheckpointChanged:
		next := a.watch()
		if a.pending {
			return a, next
		}
		delay := a.limiter.Reserve().Delay()
		if delay == 0 {
			a.bar.SetState(status.StateRefreshing)
			return a, tea.Batch(next, a.load())
		}
		a.pending = true
		return a, tea.Batch(next, tea.Tick(delay, func(time.Time) tea.Msg {
			return messages.RefreshDue{}
		}))

	case messages.RefreshDue:
		a.pending = false
		a.bar.SetState(status.StateRefreshing)
		return a, a.load()

	case messages.WatchFailed:
		a.bar.SetState(status.StateError)
		a.bar.SetMessage(msg.Err.Error())
		return a, a.watch()

	case messages.WatchClosed:
		a.bar.SetState(status.StateStopped)
		return a, nil
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	header := a.styles.Title.Render("wrapshake") + " " + a.spinner.View()

	var completed, cycles int
	if a.found && a.checkpoint != nil {
		completed = len(a.checkpoint.CompletedIterations)
		cycles = a.checkpoint.Washing.CompletedCycles
	}
	bars := lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Label.Render("Docking")+a.docking.ViewAs(Ratio(completed, a.targets.Seeds)),
		a.styles.Label.Render("Washing")+a.washing.ViewAs(Ratio(cycles, a.targets.Cycles)),
	)

	sections := []string{
		header,
		"",
		bars,
		"",
		Render(a.styles, a.checkpoint, a.found, a.targets),
	}
	if a.showHelp {
		sections = append(sections, "", a.helpView())
	}
	sections = append(sections, "", a.bar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Checkpoint returns the last record read and whether one was found.
func (a *App) Checkpoint() (*domain.Checkpoint, bool) {
	return a.checkpoint, a.found
}

// Pending reports whether a throttled re-read is scheduled.
func (a *App) Pending() bool {
	return a.pending
}

// Bar returns the status bar.
func (a *App) Bar() *status.Bar {
	return a.bar
}

// Close stops the file watcher.
func (a *App) Close() error {
	if a.watcher == nil {
		return nil
	}
	return a.watcher.Close()
}

func (a *App) load() tea.Cmd {
	return func() tea.Msg {
		cp, found, err := a.ports.Status.Status(a.ctx)
		return messages.CheckpointLoaded{Checkpoint: cp, Found: found, Err: err, At: time.Now()}
	}
}

func (a *App) watch() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	return a.watcher.Next()
}

func (a *App) helpView() string {
	var lines []string
	for _, group := range a.keymap.FullHelp() {
		for _, b := range group {
			h := b.Help()
			lines = append(lines, fmt.Sprintf("%-4s %s", h.Key, h.Desc))
		}
	}
	return a.styles.Muted.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Run starts the watch view and blocks until the user quits or ctx ends.
func Run(ctx context.Context, app *App, opts ...tea.ProgramOption) error {
	defer app.Close()
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(app, opts...).Run(); err != nil {
		return fmt.Errorf("watch view: %w", err)
	}
	return nil
}
