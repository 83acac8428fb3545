package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Write the receptor with every accepted pose as one complex",
	Long: `Combine the unmasked receptor and the accepted poses into one PDBQT
complex, ready for simulation system preparation.`,
	RunE: runAssemble,
}

func init() {
	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Assembler == nil {
		return errors.New("complex assembler not configured")
	}

	summary, err := services.Assembler.Assemble(cmd.Context())
	if err != nil {
		return err
	}
	printAssembleSummary(cmd, summary)
	return nil
}

func printAssembleSummary(cmd *cobra.Command, s *driving.AssembleSummary) {
	cmd.Printf("Complex %s: %d ligands, %d atoms\n", s.Ref, s.Ligands, s.Atoms)
	cmd.Printf("  %s\n", s.Path)
}
