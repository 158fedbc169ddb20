package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/irahardianto/shipgate/internal/engine/config"
)

// DocumentKey is the document-store key for the latest execution report.
const DocumentKey = "quality-gate-report.md"

// RenderMarkdown renders the persisted execution report for one run.
// Gate metadata (name, level, blocking) is looked up from the configuration
// the run executed against.
func RenderMarkdown(res RunResult, cfg *config.Configuration) string {
	var b strings.Builder

	b.WriteString("# Quality Gate Execution Report\n\n")
	fmt.Fprintf(&b, "- **Started:** %s\n", res.StartTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Finished:** %s\n", res.EndTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Duration:** %dms\n", res.DurationMs)
	fmt.Fprintf(&b, "- **Overall status:** %s\n\n", res.OverallStatus)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "| Total | Passed | Failed | Warnings | Skipped criteria | Blocked |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %v |\n\n",
		res.Summary.Total, res.Summary.Passed, res.Summary.Failed,
		res.Summary.Warnings, res.Summary.Skipped, res.Summary.Blocked)

	b.WriteString("## Gates\n\n")
	for _, exec := range res.Executions {
		name := exec.GateID
		level := config.Level("")
		blocking := false
		if g := cfg.Gate(exec.GateID); g != nil {
			name = g.Name
			level = g.Level
			blocking = g.Blocking
		}

		fmt.Fprintf(&b, "### %s (`%s`)\n\n", name, exec.GateID)
		fmt.Fprintf(&b, "- Status: **%s**\n", exec.Status)
		fmt.Fprintf(&b, "- Score: %.2f\n", exec.OverallScore)
		fmt.Fprintf(&b, "- Execution time: %dms\n", exec.ExecutionTime)
		fmt.Fprintf(&b, "- Level: %s\n", level)
		fmt.Fprintf(&b, "- Blocking: %v\n\n", blocking)

		for _, r := range exec.Results {
			fmt.Fprintf(&b, "- `%s` — %s: %.2f %s %.2f (score %.2f) — %s\n",
				r.CriteriaID, r.Status, r.ActualValue, r.Operator, r.ExpectedValue, r.Score, r.Message)
		}
		if len(exec.Results) > 0 {
			b.WriteString("\n")
		}

		if len(exec.Errors) > 0 {
			b.WriteString("**Errors:**\n\n")
			for _, e := range exec.Errors {
				fmt.Fprintf(&b, "- %s\n", e)
			}
			b.WriteString("\n")
		}
		if len(exec.Warnings) > 0 {
			b.WriteString("**Warnings:**\n\n")
			for _, w := range exec.Warnings {
				fmt.Fprintf(&b, "- %s\n", w)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Recommendations\n\n")
	for _, rec := range res.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	return b.String()
}
