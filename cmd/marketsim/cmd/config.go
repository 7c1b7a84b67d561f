package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"marketsim/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and check run configuration files",
	Long: `Manage run configuration files.

Subcommands:
  init     - Write a configuration file with defaults
  validate - Check an existing configuration file

Examples:
  marketsim config init -o run.yaml
  marketsim config validate -f run.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with defaults",
	Long: `Create a new configuration file with default settings. The format follows
the file extension: .yaml/.yml for YAML, anything else JSON.

Example:
  marketsim config init -o run.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a configuration file",
	Long: `Check that a configuration file parses and passes validation.

Example:
  marketsim config validate -f run.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "run.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  marketsim backtest -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Capital: $%.2f (commission %.4f, slippage %.4f)\n", cfg.Capital, cfg.Commission, cfg.Slippage)
	fmt.Printf("  Strategy: %s\n", cfg.Strategy.Name)
	fmt.Printf("  Data: %s\n", cfg.Data.Path)
	fmt.Printf("  Journal: %s\n", cfg.Journal.Driver)
	return nil
}
