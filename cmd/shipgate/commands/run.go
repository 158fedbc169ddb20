package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/irahardianto/shipgate/internal/engine/collect"
	"github.com/irahardianto/shipgate/internal/engine/metrics"
	"github.com/irahardianto/shipgate/internal/engine/report"
	"github.com/irahardianto/shipgate/internal/platform/logger"
	"github.com/spf13/cobra"
)

// ErrGatesFailed is returned when the overall verdict is FAIL.
var ErrGatesFailed = errors.New("quality gates failed")

var (
	flagMetricsFile string
	flagSet         []string
	flagGoTestFile  string
	flagSarifFile   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate all quality gates against the supplied metrics",
	Long: `Execute enabled gates in staged order. Exit 0 when the overall verdict is
PASS or WARNING, exit 1 on FAIL. Metrics come from tool reports (--gotest,
--sarif), a JSON metrics file (--metrics), and inline overrides (--set),
with later sources winning in that order.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		err := runGates(cmd)
		if errors.Is(err, ErrGatesFailed) {
			os.Exit(1)
		}
		return err
	},
}

func runGates(cmd *cobra.Command) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	mctx, err := assembleMetrics(ctx, os.ReadFile)
	if err != nil {
		return err
	}

	orch, _, closeStore, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck

	result, err := orch.Execute(ctx, mctx)
	if result == nil {
		return err
	}
	if err != nil {
		// The run completed; only archiving failed. Report both.
		log.Error("persisting run artifacts failed", "error", err)
	}

	var fmtr report.Formatter
	if flagJSON {
		fmtr = report.NewJSONFormatter()
	} else {
		fmtr = report.NewCLIFormatter(!flagNoColor, flagVerbose)
	}
	fmt.Fprint(cmd.OutOrStdout(), fmtr.Format(*result))

	if result.OverallStatus == report.StatusFail {
		return ErrGatesFailed
	}
	return err
}

// assembleMetrics builds the evaluation context from the run flags:
// collector-derived entries first, then the metrics file, then --set
// overrides, with later sources replacing earlier ones.
func assembleMetrics(ctx context.Context, readFile func(string) ([]byte, error)) (metrics.Context, error) {
	mctx := metrics.Context{}

	if flagGoTestFile != "" {
		data, err := readFile(flagGoTestFile)
		if err != nil {
			return nil, fmt.Errorf("reading go test output: %w", err)
		}
		derived, err := collect.NewGoTestCollector().Collect(ctx, data)
		if err != nil {
			return nil, err
		}
		mctx.Merge(derived)
	}

	if flagSarifFile != "" {
		data, err := readFile(flagSarifFile)
		if err != nil {
			return nil, fmt.Errorf("reading SARIF report: %w", err)
		}
		derived, err := collect.NewSarifCollector().Collect(ctx, data)
		if err != nil {
			return nil, err
		}
		mctx.Merge(derived)
	}

	if flagMetricsFile != "" {
		data, err := readFile(flagMetricsFile)
		if err != nil {
			return nil, fmt.Errorf("reading metrics file: %w", err)
		}
		var fromFile metrics.Context
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("parsing metrics file: %w", err)
		}
		mctx.Merge(fromFile)
	}

	overrides, err := parseSetFlags(flagSet)
	if err != nil {
		return nil, err
	}
	mctx.Merge(overrides)

	return mctx, nil
}

// parseSetFlags turns key=value pairs into context entries. Values that
// parse as numbers are stored numerically; everything else stays a string.
func parseSetFlags(pairs []string) (metrics.Context, error) {
	out := metrics.Context{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set value %q, expected key=value", pair)
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			out[key] = f
		} else {
			out[key] = value
		}
	}
	return out, nil
}

func init() {
	runCmd.Flags().StringVar(&flagMetricsFile, "metrics", "", "Path to a JSON file of metric values")
	runCmd.Flags().StringArrayVar(&flagSet, "set", nil, "Inline metric override as key=value (repeatable)")
	runCmd.Flags().StringVar(&flagGoTestFile, "gotest", "", "Path to `go test -json` output to derive test metrics from")
	runCmd.Flags().StringVar(&flagSarifFile, "sarif", "", "Path to a SARIF report to derive security metrics from")
	rootCmd.AddCommand(runCmd)
}
