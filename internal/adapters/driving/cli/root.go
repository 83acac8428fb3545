// Package cli implements the wrapshake command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wrapshake/internal/adapters/driven/config"
	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/logger"
)

// annotationStandalone marks commands that run without configuration or services.
const annotationStandalone = "wrapshake/standalone"

var (
	cfgFile         string
	dryRun          bool
	resetCheckpoint bool
	verbose         bool
)

// cfg is the configuration loaded for the current command.
var cfg *config.Config

// services holds the wired driving ports. Tests replace it with mocks.
var services *Services

// wireServices builds services from configuration. Tests replace it.
var wireServices = Wire

var rootCmd = &cobra.Command{
	Use:   "wrapshake",
	Short: "Iterative blind docking with receptor masking and displacement washing",
	Long: `wrapshake docks a ligand against a receptor over many random seeds,
masking the receptor surface around every accepted pose so later seeds explore
elsewhere, then washes the docked complex with short equilibrations and evicts
ligand copies that drift away.

Every step is checkpointed. Re-running a command resumes where the last run
stopped; --reset starts over.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"configuration file (default ./"+config.DefaultFileName+")")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"print planned engine invocations without running them")
	rootCmd.PersistentFlags().BoolVar(&resetCheckpoint, "reset", false,
		"discard the persisted checkpoint before running")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	cobra.OnFinalize(closeServices)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and prints a failure description.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		rootCmd.PrintErrln(describeError(err))
	}
	return err
}

// setup loads configuration, configures logging and wires services.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetVerbose(verbose)
	if cmd.Annotations[annotationStandalone] == "true" {
		return nil
	}

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded
	if err := logger.SetFormat(cfg.Logging.Format); err != nil {
		return err
	}
	if !verbose {
		if err := logger.SetLevel(cfg.Logging.Level); err != nil {
			return err
		}
	}

	if services != nil {
		return nil
	}
	wired, err := wireServices(cmd.Context(), cfg, RunOptions{
		DryRun: dryRun,
		Out:    cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	services = wired
	return nil
}

// closeServices flushes metrics and releases stores after every command.
func closeServices() {
	if services != nil && services.Close != nil {
		if err := services.Close(); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}
	services = nil
	logger.Sync()
}

// resetIfRequested discards persisted progress when --reset is set.
func resetIfRequested(ctx context.Context) error {
	if !resetCheckpoint {
		return nil
	}
	if services.Reset == nil {
		return errors.New("checkpoint reset not configured")
	}
	return services.Reset(ctx)
}

// describeError renders err for the terminal, naming the failed step and
// whether re-running resumes.
func describeError(err error) string {
	var b strings.Builder
	step, ok := domain.FailedStep(err)
	switch {
	case domain.IsConfigError(err):
		b.WriteString("Configuration error: ")
	case ok:
		fmt.Fprintf(&b, "Step %q failed: ", step)
	default:
		b.WriteString("Error: ")
	}
	b.WriteString(err.Error())

	if domain.IsEngineError(err) || domain.IsExtractionError(err) {
		b.WriteString("\nProgress up to the last completed step is saved; re-run the command to resume.")
	}
	return b.String()
}
