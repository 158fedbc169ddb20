package commands

import (
	"fmt"
	"time"

	"github.com/irahardianto/shipgate/internal/engine/exception"
	"github.com/spf13/cobra"
)

var (
	flagExcGate       string
	flagExcCriteria   string
	flagExcReason     string
	flagExcApprover   string
	flagExcExpires    string
	flagExcConditions []string
)

var exceptionsCmd = &cobra.Command{
	Use:   "exceptions",
	Short: "Manage time-bounded gate exceptions",
	Long: `Exceptions waive a gate criterion (or a whole gate) until they expire.
Each one records who approved it and why, and can be revoked early.`,
}

var exceptionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an exception for a gate or a single criterion",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		expiresAt, err := parseExpiry(flagExcExpires, time.Now())
		if err != nil {
			return err
		}

		orch, _, closeStore, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		id, err := orch.CreateException(ctx, exception.CreateRequest{
			GateID:     flagExcGate,
			CriteriaID: flagExcCriteria,
			Reason:     flagExcReason,
			Approver:   flagExcApprover,
			ExpiresAt:  expiresAt,
			Conditions: flagExcConditions,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Exception %s created, expires %s\n", id, expiresAt.Format(time.RFC3339))
		return nil
	},
}

var exceptionsRevokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Deactivate an exception before it expires",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		orch, _, closeStore, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		found, err := orch.DeactivateException(ctx, args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no exception with id %q", args[0])
		}

		fmt.Fprintf(cmd.OutOrStdout(), "🚫 Exception %s revoked\n", args[0])
		return nil
	},
}

var exceptionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all recorded exceptions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		orch, _, closeStore, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		excs := orch.Exceptions()
		out := cmd.OutOrStdout()
		if len(excs) == 0 {
			fmt.Fprintln(out, "No exceptions recorded.")
			return nil
		}

		now := time.Now()
		for _, e := range excs {
			state := "active"
			switch {
			case !e.Active:
				state = "revoked"
			case !e.ExpiresAt.After(now):
				state = "expired"
			}
			scope := e.GateID
			if e.CriteriaID != "" {
				scope += "/" + e.CriteriaID
			}
			fmt.Fprintf(out, "%s  %-8s %s\n", e.ID, state, scope)
			fmt.Fprintf(out, "    reason: %s (approved by %s, expires %s)\n",
				e.Reason, e.Approver, e.ExpiresAt.Format(time.RFC3339))
		}
		return nil
	},
}

// parseExpiry accepts either an RFC3339 timestamp or a duration offset
// from now ("72h", "30m").
func parseExpiry(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--expires is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --expires value %q, expected RFC3339 timestamp or duration", value)
	}
	return now.Add(d), nil
}

func init() {
	exceptionsAddCmd.Flags().StringVar(&flagExcGate, "gate", "", "Gate the exception applies to")
	exceptionsAddCmd.Flags().StringVar(&flagExcCriteria, "criteria", "", "Criterion to waive (empty waives the whole gate)")
	exceptionsAddCmd.Flags().StringVar(&flagExcReason, "reason", "", "Why the exception is needed")
	exceptionsAddCmd.Flags().StringVar(&flagExcApprover, "approver", "", "Who approved the exception")
	exceptionsAddCmd.Flags().StringVar(&flagExcExpires, "expires", "", "Expiry as RFC3339 timestamp or duration from now (e.g. 72h)")
	exceptionsAddCmd.Flags().StringSliceVar(&flagExcConditions, "condition", nil, "Condition attached to the exception (repeatable)")
	_ = exceptionsAddCmd.MarkFlagRequired("gate")
	_ = exceptionsAddCmd.MarkFlagRequired("reason")
	_ = exceptionsAddCmd.MarkFlagRequired("approver")
	_ = exceptionsAddCmd.MarkFlagRequired("expires")

	exceptionsCmd.AddCommand(exceptionsAddCmd)
	exceptionsCmd.AddCommand(exceptionsRevokeCmd)
	exceptionsCmd.AddCommand(exceptionsListCmd)
	rootCmd.AddCommand(exceptionsCmd)
}
