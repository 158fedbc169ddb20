package commands

import (
	"fmt"
	"strings"

	"github.com/irahardianto/shipgate/internal/engine/config"
	"github.com/spf13/cobra"
)

var (
	flagThreshMinPassRate float64
	flagThreshMaxFailures int
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show or tune per-level pass thresholds",
}

var thresholdsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current threshold for each gate level",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		orch, _, closeStore, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		th := orch.Configuration().Thresholds
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-10s %12s %12s\n", "LEVEL", "MIN PASS", "MAX FAILURES")
		for _, row := range []struct {
			level  config.Level
			bucket config.LevelThreshold
		}{
			{config.LevelCritical, th.Critical},
			{config.LevelMajor, th.Major},
			{config.LevelMinor, th.Minor},
		} {
			fmt.Fprintf(out, "%-10s %11.1f%% %12d\n", row.level, row.bucket.MinPassRate, row.bucket.MaxFailures)
		}
		return nil
	},
}

var thresholdsSetCmd = &cobra.Command{
	Use:   "set <level>",
	Short: "Adjust one level's threshold and persist the configuration",
	Long: `Adjust the minimum pass rate and/or maximum allowed failures for a gate
level (critical, major, or minor). Only the flags you pass change.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		level := config.Level(strings.ToUpper(args[0]))

		var adj config.ThresholdAdjustment
		if cmd.Flags().Changed("min-pass-rate") {
			adj.MinPassRate = &flagThreshMinPassRate
		}
		if cmd.Flags().Changed("max-failures") {
			adj.MaxFailures = &flagThreshMaxFailures
		}
		if adj.MinPassRate == nil && adj.MaxFailures == nil {
			return fmt.Errorf("nothing to change, pass --min-pass-rate and/or --max-failures")
		}

		orch, _, closeStore, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		if err := orch.AdjustThresholds(ctx, level, adj); err != nil {
			return err
		}

		bucket := orch.Configuration().Thresholds.ForLevel(level)
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s threshold now requires %.1f%% pass rate, max %d failures\n",
			level, bucket.MinPassRate, bucket.MaxFailures)
		return nil
	},
}

func init() {
	thresholdsSetCmd.Flags().Float64Var(&flagThreshMinPassRate, "min-pass-rate", 0, "Minimum weighted pass rate for the level")
	thresholdsSetCmd.Flags().IntVar(&flagThreshMaxFailures, "max-failures", 0, "Maximum criterion failures tolerated for the level")

	thresholdsCmd.AddCommand(thresholdsShowCmd)
	thresholdsCmd.AddCommand(thresholdsSetCmd)
	rootCmd.AddCommand(thresholdsCmd)
}
