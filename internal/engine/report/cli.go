package report

import (
	"fmt"
	"strings"
)

// ANSI color codes.
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiDim    = "\033[2m"
)

// CLIFormatter outputs a RunResult as a human-readable terminal report.
type CLIFormatter struct {
	Color   bool
	Verbose bool
}

// NewCLIFormatter creates a new CLIFormatter.
func NewCLIFormatter(color, verbose bool) *CLIFormatter {
	return &CLIFormatter{Color: color, Verbose: verbose}
}

// Format returns a formatted CLI report.
func (f *CLIFormatter) Format(result RunResult) string {
	var b strings.Builder

	icon := f.statusIcon(result.OverallStatus)
	b.WriteString(fmt.Sprintf("\n%s %s — %s in %dms\n\n",
		icon,
		f.colorize("Quality gates", ansiBold),
		strings.ToLower(string(result.OverallStatus)),
		result.DurationMs))

	for _, exec := range result.Executions {
		b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			f.statusIcon(exec.Status),
			f.colorize(exec.GateID, ansiBold),
			f.colorize(fmt.Sprintf("%.1f", exec.OverallScore), ansiCyan),
			f.colorize(fmt.Sprintf("%dms", exec.ExecutionTime), ansiDim)))

		for _, e := range exec.Errors {
			b.WriteString(fmt.Sprintf("    💥 %s\n", f.colorize(e, ansiRed)))
		}

		if f.Verbose {
			for _, r := range exec.Results {
				line := fmt.Sprintf("%s: %.2f %s %.2f (score %.2f)",
					r.CriteriaID, r.ActualValue, r.Operator, r.ExpectedValue, r.Score)
				b.WriteString(fmt.Sprintf("    %s %s\n", f.criterionIcon(r.Status), f.colorize(line, ansiDim)))
			}
		}
	}

	b.WriteString(fmt.Sprintf("\n  %s %d passed, %d failed, %d warnings, %d skipped criteria\n",
		f.colorize("Summary:", ansiBold),
		result.Summary.Passed, result.Summary.Failed, result.Summary.Warnings, result.Summary.Skipped))

	if len(result.Recommendations) > 0 {
		b.WriteString("\n")
		for _, rec := range result.Recommendations {
			b.WriteString(fmt.Sprintf("  %s\n", rec))
		}
	}

	return b.String()
}

func (f *CLIFormatter) statusIcon(s Status) string {
	switch s {
	case StatusPass:
		return f.colorize("✅", ansiGreen)
	case StatusWarning:
		return f.colorize("⚠️", ansiYellow)
	case StatusSkip:
		return "⏭️"
	default:
		return f.colorize("❌", ansiRed)
	}
}

func (f *CLIFormatter) criterionIcon(s Status) string {
	switch s {
	case StatusSkip:
		return "⏭️"
	case StatusPass:
		return f.colorize("✔", ansiGreen)
	default:
		return f.colorize("✘", ansiRed)
	}
}

func (f *CLIFormatter) colorize(s, code string) string {
	if !f.Color {
		return s
	}
	return code + s + ansiReset
}
