// Package report holds the run result model produced by gate execution and
// renders it for humans (CLI, Markdown report) and machines (JSON).
package report

import (
	"time"

	"github.com/irahardianto/shipgate/internal/engine/config"
)

// Status is the terminal classification of a criterion result, a gate
// execution, or a whole run.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusWarning Status = "WARNING"
	StatusSkip    Status = "SKIP"
)

// CriterionResult is the outcome of evaluating one criterion in one run.
// Results are created once and never mutated.
type CriterionResult struct {
	CriteriaID    string          `json:"criteriaId"`
	Status        Status          `json:"status"`
	ActualValue   float64         `json:"actualValue"`
	ExpectedValue float64         `json:"expectedValue"`
	Operator      config.Operator `json:"operator"`
	Passed        bool            `json:"passed"`
	Score         float64         `json:"score"`
	Message       string          `json:"message"`
	Timestamp     time.Time       `json:"timestamp"`
}

// GateExecution is the outcome of running one gate in one run.
type GateExecution struct {
	GateID        string            `json:"gateId"`
	Status        Status            `json:"status"`
	Results       []CriterionResult `json:"results"`
	OverallScore  float64           `json:"overallScore"`
	ExecutionTime int64             `json:"executionTime"`
	StartTime     time.Time         `json:"startTime"`
	EndTime       time.Time         `json:"endTime"`
	Errors        []string          `json:"errors,omitempty"`
	Warnings      []string          `json:"warnings,omitempty"`
}

// Clone returns a deep copy of the execution.
func (e GateExecution) Clone() GateExecution {
	out := e
	out.Results = append([]CriterionResult(nil), e.Results...)
	out.Errors = append([]string(nil), e.Errors...)
	out.Warnings = append([]string(nil), e.Warnings...)
	return out
}

// Summary aggregates gate outcomes for one run.
type Summary struct {
	Total    int  `json:"total"`
	Passed   int  `json:"passed"`
	Failed   int  `json:"failed"`
	Warnings int  `json:"warnings"`
	Skipped  int  `json:"skipped"`
	Blocked  bool `json:"blocked"`
}

// RunResult is the aggregated outcome of one quality-gate run.
// Executions appear in gate declaration order; gates skipped for unmet
// dependencies are absent entirely.
type RunResult struct {
	OverallStatus   Status          `json:"overallStatus"`
	Executions      []GateExecution `json:"executions"`
	Summary         Summary         `json:"summary"`
	Recommendations []string        `json:"recommendations"`
	StartTime       time.Time       `json:"startTime"`
	EndTime         time.Time       `json:"endTime"`
	DurationMs      int64           `json:"durationMs"`
}

// Formatter formats a RunResult into a human-readable or machine-readable string.
type Formatter interface {
	Format(result RunResult) string
}
