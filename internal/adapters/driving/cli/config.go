package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/wrapshake/internal/adapters/driven/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with default values",
	Long: `Write a commented configuration file with every setting at its default.
The file is written to the given path, --config, or ./` + config.DefaultFileName + `.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationStandalone: "true"},
	RunE:        runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults and WRAPSHAKE_ environment
overrides have been applied.`,
	Annotations: map[string]string{annotationStandalone: "true"},
	RunE:        runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultFileName
	switch {
	case len(args) == 1:
		path = args[0]
	case cfgFile != "":
		path = cfgFile
	}

	if err := config.Write(path, config.Default(), configForce); err != nil {
		return err
	}
	cmd.Printf("Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	data, err := config.Marshal(loaded)
	if err != nil {
		return err
	}
	if file := config.File(cfgFile); file != "" {
		cmd.Printf("# Loaded from %s\n", file)
	}
	cmd.Print(string(data))
	return nil
}
