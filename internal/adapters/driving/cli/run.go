package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Dock, assemble the complex, then wash",
	Long: `Run the docking loop, write the receptor-ligand complex and run the
washing cycles. Washing expects the simulation files in washing.work_dir to
have been prepared from an assembled complex; with washing.cycles = 0 the
pipeline stops after assembly.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Docking == nil || services.Washing == nil || services.Assembler == nil {
		return errors.New("pipeline services not configured")
	}
	if err := resetIfRequested(cmd.Context()); err != nil {
		return err
	}
	ctx := cmd.Context()

	docked, err := services.Docking.Run(ctx)
	if docked != nil {
		printDockingSummary(cmd, docked)
	}
	if err != nil {
		return err
	}

	if !docked.DryRun && len(docked.AcceptedPoses) > 0 {
		complexSummary, err := services.Assembler.Assemble(ctx)
		if err != nil {
			return err
		}
		printAssembleSummary(cmd, complexSummary)
	}

	if cfg != nil && cfg.Washing.Cycles == 0 {
		return nil
	}
	washed, err := services.Washing.Run(ctx)
	if washed != nil {
		printWashingSummary(cmd, washed)
	}
	return err
}
