package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errSetupIssues makes validate exit non-zero when issues are found.
var errSetupIssues = errors.New("setup has issues")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check inputs without running any engine",
	Long: `Inspect the receptor, ligand and simulation files and the configuration
for problems that would only surface later: malformed PDBQT columns, a
parameter file whose duration differs from washing.cycle_time_ns, a topology
without the ligand molecule, or Windows paths under the wsl platform.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Setup == nil {
		return errors.New("setup validator not configured")
	}

	issues, err := services.Setup.Validate(cmd.Context())
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		cmd.Println("No issues found.")
		return nil
	}

	for _, issue := range issues {
		cmd.Printf("  - %s\n", issue)
	}
	return fmt.Errorf("%w: %d found", errSetupIssues, len(issues))
}
