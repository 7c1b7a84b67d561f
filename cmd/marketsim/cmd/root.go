package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"marketsim/internal/logx"
)

var rootCmd = &cobra.Command{
	Use:   "marketsim",
	Short: "A market simulation and risk-control research tool",
	Long: `marketsim replays historical bar data through trading strategies against
a simulated portfolio ledger, with pre-trade risk limits, performance
metrics, and persistent run journals.

Commands:
  backtest - Run one strategy over a bar series
  sweep    - Grid-search one strategy parameter in parallel
  risk     - Check a proposed trade against portfolio limits
  convert  - Convert bar data between CSV and Parquet
  config   - Generate or validate configuration files
  version  - Print the version number`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var (
	rootLogLevel string
	rootLogJSON  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&rootLogJSON, "log-json", false, "emit logs as JSON instead of text")
}

// newLogger builds the CLI logger and installs it as the slog default.
// The --log-level flag wins over the config file's log_level; both empty
// means info.
func newLogger(configLevel string) *slog.Logger {
	level := configLevel
	if rootLogLevel != "" {
		level = rootLogLevel
	}
	log := logx.New(level, rootLogJSON)
	logx.SetDefault(log)
	return log
}
