package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wrapshake/internal/core/ports/driving"
)

var washCmd = &cobra.Command{
	Use:   "wash",
	Short: "Run displacement washing cycles",
	Long: `Run short equilibrations of the docked complex and evict every ligand
copy whose centroid moved further than displacement_cutoff. Topology, index
and coordinates are updated after each cycle.`,
	RunE: runWash,
}

func init() {
	rootCmd.AddCommand(washCmd)
}

func runWash(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Washing == nil {
		return errors.New("washing engine not configured")
	}
	if err := resetIfRequested(cmd.Context()); err != nil {
		return err
	}

	summary, err := services.Washing.Run(cmd.Context())
	if summary != nil {
		printWashingSummary(cmd, summary)
	}
	return err
}

func printWashingSummary(cmd *cobra.Command, s *driving.WashingSummary) {
	if s.DryRun {
		cmd.Println("Dry run: no engine was executed and no progress was saved.")
	}
	for _, c := range s.Cycles {
		cmd.Printf("Cycle %d: %d measured, %d vanished, %d evicted%s, %d remaining\n",
			c.Cycle, len(c.Displacements), len(c.Vanished), len(c.Evicted), residueList(c.Evicted), c.Remaining)
	}
	cmd.Printf("Completed cycles: %d\n", s.CompletedCycles)
	cmd.Printf("Total evicted:    %d\n", s.TotalEvicted)
	cmd.Printf("Ligands left:     %d\n", s.Remaining)
}

func residueList(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return " (" + strings.Join(parts, " ") + ")"
}
