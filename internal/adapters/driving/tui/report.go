package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

// Targets are the configured goals progress is measured against.
type Targets struct {
	// Seeds is the number of docking seeds.
	Seeds int

	// MaxAccepted is the acceptance cap.
	MaxAccepted int

	// Cycles is the number of washing cycles.
	Cycles int
}

// Render formats a progress record as a styled report.
func Render(s *styles.Styles, cp *domain.Checkpoint, found bool, t Targets) string {
	if s == nil {
		s = styles.DefaultStyles()
	}
	title := s.Title.Render("wrapshake status")
	if !found || cp == nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, s.Muted.Render("No checkpoint yet."))
	}

	row := func(label, value string) string {
		return s.Label.Render(label) + s.Value.Render(value)
	}
	rejected := len(cp.CompletedIterations) - cp.SuccessCount

	lines := []string{
		title,
		row("Run", cp.RunID),
		row("Updated", formatTime(cp.UpdatedAt)),
		"",
		s.Section.Render("Docking"),
		row("Grid", s.Stage(cp.IsStageComplete(domain.StageGrid))),
		row("Iterations", fraction(len(cp.CompletedIterations), t.Seeds)),
		row("Accepted", s.Success.Render(fraction(cp.SuccessCount, t.MaxAccepted))),
		row("Rejected", s.Warning.Render(fmt.Sprintf("%d", rejected))),
		row("Current receptor", refOrDash(cp.CurrentReceptor)),
		row("Stage", s.Stage(cp.IsStageComplete(domain.StageDocking))),
		"",
		s.Section.Render("Washing"),
		row("Cycles", fraction(cp.Washing.CompletedCycles, t.Cycles)),
		row("Evicted", s.Warning.Render(fmt.Sprintf("%d", cp.Washing.TotalEvicted))),
		row("Stage", s.Stage(cp.IsStageComplete(domain.StageWashing))),
	}
	if len(cp.AcceptedPoses) > 0 {
		poses := make([]string, len(cp.AcceptedPoses))
		for i, ref := range cp.AcceptedPoses {
			poses[i] = strings.TrimPrefix(ref.Key(), cp.RunID+"-")
		}
		lines = append(lines, "", row("Accepted seeds", strings.Join(poses, " ")))
	}

	return s.Border.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Ratio returns done/total clamped to [0, 1].
func Ratio(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	r := float64(done) / float64(total)
	if r > 1 {
		return 1
	}
	return r
}

func fraction(done, total int) string {
	if total <= 0 {
		return fmt.Sprintf("%d", done)
	}
	return fmt.Sprintf("%d / %d", done, total)
}

func refOrDash(ref domain.ArtifactRef) string {
	if ref.IsZero() {
		return "-"
	}
	return ref.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
