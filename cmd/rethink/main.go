package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rethink/cmd/rethink/commands"
	"rethink/config"
	"rethink/logger"
)

var (
	verbosity int
	jsonLogs  bool
)

var rootCmd = &cobra.Command{
	Use:   "rethink",
	Short: "Bayesian data analysis, chapter by chapter",
	Long: `rethink - a workbook of Bayesian data analysis.

Each chapter loads a dataset, declares a small model, fits it with an
approximation engine, and writes a narrative with precis tables and figures.

Available commands:
  chapters - List the worked-example chapters
  run      - Run a chapter and print its narrative
  data     - Inspect the bundled datasets
  fit      - Fit a model file against a dataset
  cache    - Manage the fit cache
  render   - Write a chapter's markdown document to disk
  version  - Show build information

Examples:
  rethink chapters                     # What is there to read?
  rethink run small-worlds             # Globe tossing, in the terminal
  rethink render geocentric --watch    # Keep the document fresh while editing
  rethink fit m.model --data howell1   # Your own model against bundled data`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(verbosity, jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.ChaptersCmd)
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.DataCmd)
	rootCmd.AddCommand(commands.FitCmd)
	rootCmd.AddCommand(commands.CacheCmd)
	rootCmd.AddCommand(commands.RenderCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	// Make config loading honor RETHINK_* and rethink.toml before any command
	// runs; commands then share the cached instance.
	if _, err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Cleanup()
		os.Exit(1)
	}
}
