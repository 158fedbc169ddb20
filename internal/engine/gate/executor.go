// Package gate executes a single quality gate against a metrics context:
// criteria are evaluated in declared order under the gate timeout, and the
// weighted outcome is classified against the gate level's pass bar.
package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/irahardianto/shipgate/internal/engine/config"
	"github.com/irahardianto/shipgate/internal/engine/criterion"
	"github.com/irahardianto/shipgate/internal/engine/exception"
	"github.com/irahardianto/shipgate/internal/engine/metrics"
	"github.com/irahardianto/shipgate/internal/engine/report"
	"github.com/irahardianto/shipgate/internal/platform/logger"
)

// warningBand is the fraction of minPassRate below which a gate drops from
// WARNING to outright FAIL. The soft zone avoids pass/fail flapping right
// at the threshold.
const warningBand = 0.8

// ExceptionChecker reports the exception currently suppressing a
// (gate, criterion) pair, if any.
type ExceptionChecker interface {
	FindInEffect(gateID, criteriaID string) *exception.Exception
}

// Executor runs gates. It is stateless apart from its collaborators and is
// safe to reuse across runs.
type Executor struct {
	exceptions ExceptionChecker
	clock      func() time.Time
}

// NewExecutor creates an Executor consulting the given exception checker.
func NewExecutor(exceptions ExceptionChecker) *Executor {
	return &Executor{exceptions: exceptions, clock: time.Now}
}

// NewExecutorWithClock creates an Executor with an injected clock for tests.
func NewExecutorWithClock(exceptions ExceptionChecker, clock func() time.Time) *Executor {
	return &Executor{exceptions: exceptions, clock: clock}
}

// evalOutcome carries the criteria pass out of the evaluation goroutine.
type evalOutcome struct {
	results []report.CriterionResult
	errs    []string
}

// Execute evaluates every criterion of the gate against the context and
// classifies the gate. Criterion-level problems are contained in the
// returned execution; Execute itself never fails.
func (e *Executor) Execute(ctx context.Context, g config.Gate, mctx metrics.Context, th config.LevelThreshold, fallbackTimeout time.Duration) report.GateExecution {
	log := logger.FromContext(ctx)
	start := e.clock()
	log.Debug("gate execution started", "gate", g.ID, "criteria", len(g.Criteria))

	exec := report.GateExecution{
		GateID:    g.ID,
		StartTime: start,
	}

	timeout := g.TimeoutDuration(fallbackTimeout)
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcomeCh := make(chan evalOutcome, 1)
	go func() {
		outcomeCh <- e.evaluateCriteria(cctx, g, mctx)
	}()

	timedOut := false
	select {
	case outcome := <-outcomeCh:
		if cctx.Err() != nil {
			// The deadline fired while (or right before) evaluation wound
			// down; the partial outcome does not count.
			timedOut = true
		} else {
			exec.Results = outcome.results
			exec.Errors = outcome.errs
			e.classify(&exec, g, th)
		}
	case <-cctx.Done():
		timedOut = true
	}
	if timedOut {
		// The gate fails outright, whatever partial results the
		// evaluation gathered.
		exec.Errors = append(exec.Errors, fmt.Sprintf("gate %q timed out after %s", g.ID, timeout))
		exec.Status = report.StatusFail
		exec.OverallScore = 0
	}

	end := e.clock()
	exec.EndTime = end
	exec.ExecutionTime = end.Sub(start).Milliseconds()
	log.Debug("gate execution completed",
		"gate", g.ID, "status", exec.Status, "score", exec.OverallScore, "duration_ms", exec.ExecutionTime)
	return exec
}

// evaluateCriteria walks the gate's criteria in declared order, observing
// cancellation between criteria so a timed-out gate stops burning work.
func (e *Executor) evaluateCriteria(ctx context.Context, g config.Gate, mctx metrics.Context) evalOutcome {
	var out evalOutcome

	for _, c := range g.Criteria {
		if ctx.Err() != nil {
			return out
		}

		if exc := e.findException(g.ID, c.ID); exc != nil {
			out.results = append(out.results, report.CriterionResult{
				CriteriaID:    c.ID,
				Status:        report.StatusSkip,
				ActualValue:   0,
				ExpectedValue: c.Threshold,
				Operator:      c.Operator,
				Passed:        true,
				Score:         100,
				Message:       fmt.Sprintf("Skipped due to active exception: %s (approved by %s)", exc.Reason, exc.Approver),
				Timestamp:     e.clock(),
			})
			continue
		}

		actual, err := metrics.Resolve(c.Metric, mctx)
		if err != nil {
			out.errs = append(out.errs, fmt.Sprintf("criterion %q: %v", c.ID, err))
			out.results = append(out.results, report.CriterionResult{
				CriteriaID:    c.ID,
				Status:        report.StatusFail,
				ExpectedValue: c.Threshold,
				Operator:      c.Operator,
				Passed:        false,
				Score:         0,
				Message:       fmt.Sprintf("Evaluation failed: %v", err),
				Timestamp:     e.clock(),
			})
			continue
		}

		passed, score := criterion.Evaluate(c, actual)
		status := report.StatusFail
		verdict := "failed"
		if passed {
			status = report.StatusPass
			verdict = "passed"
		}
		out.results = append(out.results, report.CriterionResult{
			CriteriaID:    c.ID,
			Status:        status,
			ActualValue:   actual,
			ExpectedValue: c.Threshold,
			Operator:      c.Operator,
			Passed:        passed,
			Score:         score,
			Message:       fmt.Sprintf("%s: %.2f %s %.2f (%s)", c.Name, actual, c.Operator, c.Threshold, verdict),
			Timestamp:     e.clock(),
		})
	}

	return out
}

func (e *Executor) findException(gateID, criteriaID string) *exception.Exception {
	if e.exceptions == nil {
		return nil
	}
	return e.exceptions.FindInEffect(gateID, criteriaID)
}

// classify derives the gate status and overall score from its results.
// Any resolution error fails the gate outright: an error signals broken
// instrumentation and must not be averaged away.
func (e *Executor) classify(exec *report.GateExecution, g config.Gate, th config.LevelThreshold) {
	if len(exec.Errors) > 0 {
		exec.Status = report.StatusFail
		exec.OverallScore = 0
		return
	}

	mandatory := make(map[string]bool, len(g.Criteria))
	weights := make(map[string]float64, len(g.Criteria))
	for _, c := range g.Criteria {
		mandatory[c.ID] = c.Mandatory
		weights[c.ID] = c.Weight
	}

	for _, r := range exec.Results {
		if mandatory[r.CriteriaID] && !r.Passed {
			exec.Status = report.StatusFail
			exec.OverallScore = 0
			return
		}
	}

	var weightedSum, totalWeight float64
	for _, r := range exec.Results {
		w := weights[r.CriteriaID]
		weightedSum += r.Score * w
		totalWeight += w
	}
	if totalWeight == 0 {
		// A gate with no criteria has nothing to fail on.
		exec.OverallScore = 100
	} else {
		exec.OverallScore = weightedSum / totalWeight
	}

	switch {
	case exec.OverallScore >= th.MinPassRate:
		exec.Status = report.StatusPass
	case exec.OverallScore >= th.MinPassRate*warningBand:
		exec.Status = report.StatusWarning
		exec.Warnings = append(exec.Warnings,
			fmt.Sprintf("overall score %.2f is below the pass bar of %.2f", exec.OverallScore, th.MinPassRate))
	default:
		exec.Status = report.StatusFail
	}
}
