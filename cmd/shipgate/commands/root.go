// Package commands implements the CLI commands for shipgate.
package commands

import (
	"github.com/irahardianto/shipgate/internal/platform/logger"
	"github.com/spf13/cobra"
)

// Global flag values accessible to all commands.
var (
	flagJSON    bool
	flagVerbose bool
	flagNoColor bool
)

// rootCmd is the base command for the shipgate CLI.
var rootCmd = &cobra.Command{
	Use:   "shipgate",
	Short: "Staged quality-gate evaluation for deployment pipelines",
	Long: `Shipgate evaluates a deployment candidate against staged quality gates.
Gates run in dependency order, each scoring weighted criteria against the
collected metrics; blocking failures stop the pipeline, non-blocking ones
degrade the verdict to a warning. Results are archived and rendered as a
Markdown report.

Exceptions let an approver waive a criterion for a bounded time window,
and thresholds can be tuned per gate level without editing the full
configuration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		l := logger.New(flagVerbose, flagJSON)
		ctx := logger.WithContext(cmd.Context(), l)
		cmd.SetContext(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output results as JSON to stdout")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
}

// Execute runs the root command. Returns an error if the command fails.
func Execute() error {
	return rootCmd.Execute()
}
