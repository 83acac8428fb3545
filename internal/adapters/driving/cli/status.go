package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/wrapshake/internal/adapters/driving/tui"
)

var statusWatch bool

// isTerminal reports whether w is an interactive terminal. Tests replace it.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show persisted progress",
	Long: `Print the checkpoint: completed seeds, accepted and rejected poses, the
current receptor version and washing cycles.

With --watch the report refreshes whenever the checkpoint is written, so a
running dock or wash can be followed from another terminal.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "refresh when the checkpoint changes")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Status == nil {
		return errors.New("status reporter not configured")
	}
	targets := statusTargets()

	if statusWatch {
		if isTerminal(cmd.OutOrStdout()) {
			return watchStatus(cmd, targets)
		}
		cmd.PrintErrln("Output is not a terminal; printing status once.")
	}

	cp, found, err := services.Status.Status(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Println(tui.Render(nil, cp, found, targets))
	return nil
}

func watchStatus(cmd *cobra.Command, targets tui.Targets) error {
	watcher, err := tui.NewWatcher(services.CheckpointPath)
	if err != nil {
		return err
	}
	app, err := tui.NewApp(cmd.Context(), tui.NewPorts(services.Status), tui.Options{
		Targets: targets,
		Watcher: watcher,
	})
	if err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to create watch view: %w", err)
	}
	return tui.Run(cmd.Context(), app)
}

func statusTargets() tui.Targets {
	if cfg == nil {
		return tui.Targets{}
	}
	return tui.Targets{
		Seeds:       len(cfg.Docking.SeedList()),
		MaxAccepted: cfg.Docking.MaxAccepted,
		Cycles:      cfg.Washing.Cycles,
	}
}
