package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
)

var dockCmd = &cobra.Command{
	Use:   "dock",
	Short: "Run the sequential docking loop",
	Long: `Dock the ligand once per seed against the current receptor version.

Each accepted pose masks the receptor atoms around it so later seeds search
elsewhere. Poses that clash with an accepted pose are rejected. The loop stops
when every seed has run or max_accepted poses were accepted.`,
	RunE: runDock,
}

func init() {
	rootCmd.AddCommand(dockCmd)
}

func runDock(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Docking == nil {
		return errors.New("docking controller not configured")
	}
	if err := resetIfRequested(cmd.Context()); err != nil {
		return err
	}

	summary, err := services.Docking.Run(cmd.Context())
	if summary != nil {
		printDockingSummary(cmd, summary)
	}
	return err
}

func printDockingSummary(cmd *cobra.Command, s *driving.DockingSummary) {
	if s.DryRun {
		cmd.Println("Dry run: no engine was executed and no progress was saved.")
	}
	cmd.Printf("Run %s\n", s.RunID)
	cmd.Printf("  Seeds docked:    %d\n", s.Attempted)
	cmd.Printf("  Seeds skipped:   %d\n", s.Skipped)
	cmd.Printf("  Poses rejected:  %d\n", s.Rejected)
	cmd.Printf("  Poses accepted:  %d\n", len(s.AcceptedPoses))
	if !s.CurrentReceptor.IsZero() {
		cmd.Printf("  Receptor:        %s\n", s.CurrentReceptor)
	}
	if s.CapReached {
		cmd.Println("  Acceptance cap reached.")
	}
}
