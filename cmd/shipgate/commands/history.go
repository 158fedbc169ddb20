package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent gate executions",
	Long: `Print the most recent gate executions from the archive, newest last.
The archive keeps a bounded window of past executions.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		orch, _, closeStore, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		entries := orch.History()
		if flagHistoryLimit > 0 && len(entries) > flagHistoryLimit {
			entries = entries[len(entries)-flagHistoryLimit:]
		}

		out := cmd.OutOrStdout()
		if flagJSON {
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding history: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No executions recorded yet.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %-8s %-30s score %6.2f  (%dms)\n",
				e.StartTime.Format(time.RFC3339), e.Status, e.GateID, e.OverallScore, e.ExecutionTime)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 0, "Show only the last N executions (0 shows all)")
	rootCmd.AddCommand(historyCmd)
}
