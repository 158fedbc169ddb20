// Package pipeline orchestrates quality-gate runs: gates execute in
// declared order under dependency gating and fail-fast policy, and each
// run's outcome is summarized, recorded in history, and reported.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/irahardianto/shipgate/internal/engine/config"
	"github.com/irahardianto/shipgate/internal/engine/exception"
	"github.com/irahardianto/shipgate/internal/engine/gate"
	"github.com/irahardianto/shipgate/internal/engine/history"
	"github.com/irahardianto/shipgate/internal/engine/metrics"
	"github.com/irahardianto/shipgate/internal/engine/report"
	"github.com/irahardianto/shipgate/internal/platform/logger"
	"github.com/irahardianto/shipgate/internal/storage"
)

// ErrNotInitialized is returned when a run is requested before Initialize.
var ErrNotInitialized = errors.New("orchestrator not initialized")

// Orchestrator owns the configuration, exception registry, and execution
// history for one process. A single writer lock serializes runs and
// administrative mutations; there is no merge semantics for concurrent
// history appends or threshold edits.
type Orchestrator struct {
	docs  storage.DocumentStore
	clock func() time.Time

	mu         sync.Mutex
	confStore  *config.Store
	conf       *config.Configuration
	exceptions *exception.Registry
	log        *history.Log
	executor   *gate.Executor
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock injects a clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// New creates an Orchestrator persisting through the given document store.
func New(docs storage.DocumentStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		docs:  docs,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.confStore = config.NewStoreWithClock(docs, func() time.Time { return o.clock() })
	o.exceptions = exception.NewRegistryWithClock(docs, func() time.Time { return o.clock() })
	o.log = history.NewLog(docs)
	o.executor = gate.NewExecutorWithClock(o.exceptions, func() time.Time { return o.clock() })
	return o
}

// Initialize loads (or seeds) the configuration and reads the persisted
// exceptions and history. Missing documents are seeded or treated as
// empty; a broken store is an error.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	conf, err := o.confStore.Load(ctx)
	if err != nil {
		return err
	}
	if err := o.exceptions.Load(ctx); err != nil {
		return err
	}
	if err := o.log.Load(ctx); err != nil {
		return err
	}
	o.conf = conf
	logger.FromContext(ctx).Info("quality-gate engine initialized",
		"gates", len(conf.Gates), "history", len(o.log.Entries()))
	return nil
}

// Execute runs all enabled gates against the metrics context.
// On a persistence failure the computed result is still returned alongside
// the error, since the run itself completed.
func (o *Orchestrator) Execute(ctx context.Context, mctx metrics.Context) (*report.RunResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.conf == nil {
		return nil, ErrNotInitialized
	}
	log := logger.FromContext(ctx)
	start := o.clock()

	// 1. Enabled gates in declared order.
	gates := make([]config.Gate, 0, len(o.conf.Gates))
	for _, g := range o.conf.Gates {
		if g.Enabled {
			gates = append(gates, g)
		}
	}
	sort.SliceStable(gates, func(i, j int) bool { return gates[i].Order < gates[j].Order })
	log.Info("quality-gate run started", "gates", len(gates), "fail_fast", o.conf.GlobalSettings.FailFast)

	fallbackTimeout := time.Duration(o.conf.GlobalSettings.DefaultTimeout) * time.Second
	statusByGate := make(map[string]report.Status, len(gates))
	var executions []report.GateExecution
	blocked := false

	// 2. Sequential execution with dependency gating. The declared
	// parallel-execution knob is honored as sequential: correctness of
	// dependency checks and fail-fast is defined against this ordering.
	for _, g := range gates {
		if unmet := unmetDependency(g, statusByGate); unmet != "" {
			// The gate is left out of the run entirely, not recorded as SKIP.
			log.Info("gate skipped, unmet dependency", "gate", g.ID, "dependency", unmet)
			continue
		}

		exec := o.executor.Execute(ctx, g, mctx, o.conf.Thresholds.ForLevel(g.Level), fallbackTimeout)
		executions = append(executions, exec)
		statusByGate[g.ID] = exec.Status

		if g.Blocking && exec.Status == report.StatusFail {
			blocked = true
			if o.conf.GlobalSettings.FailFast {
				log.Info("fail-fast: halting run after blocking gate failure", "gate", g.ID)
				break
			}
		}
	}

	// 3–5. Aggregate.
	result := &report.RunResult{
		Executions: executions,
		Summary:    summarize(executions, blocked),
		StartTime:  start,
	}
	result.OverallStatus = overallStatus(executions, blocked)
	result.Recommendations = recommend(executions, o.conf, blocked)

	end := o.clock()
	result.EndTime = end
	result.DurationMs = end.Sub(start).Milliseconds()

	log.Info("quality-gate run completed",
		"status", result.OverallStatus, "passed", result.Summary.Passed,
		"failed", result.Summary.Failed, "blocked", result.Summary.Blocked,
		"duration_ms", result.DurationMs)

	// 6. Record history, 7. persist the report. The result is computed
	// either way; persistence failures must reach the caller.
	if err := o.log.Append(ctx, executions); err != nil {
		return result, err
	}
	md := report.RenderMarkdown(*result, o.conf)
	if err := o.docs.Write(ctx, report.DocumentKey, []byte(md)); err != nil {
		return result, fmt.Errorf("persisting execution report: %w", err)
	}

	return result, nil
}

// CreateException records a new exception and returns its generated id.
func (o *Orchestrator) CreateException(ctx context.Context, req exception.CreateRequest) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.exceptions.Create(ctx, req)
}

// DeactivateException disables an exception, reporting whether it existed.
func (o *Orchestrator) DeactivateException(ctx context.Context, id string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.exceptions.Deactivate(ctx, id)
}

// AdjustThresholds applies a partial threshold update for one level and
// persists the configuration.
func (o *Orchestrator) AdjustThresholds(ctx context.Context, level config.Level, adj config.ThresholdAdjustment) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.conf == nil {
		return ErrNotInitialized
	}
	if err := o.conf.AdjustThresholds(level, adj); err != nil {
		return err
	}
	if err := o.confStore.Save(ctx, o.conf); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("thresholds adjusted", "level", level)
	return nil
}

// ReplaceConfiguration swaps in a whole new configuration and persists it.
func (o *Orchestrator) ReplaceConfiguration(ctx context.Context, conf *config.Configuration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := config.Validate(conf); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	clone := conf.Clone()
	if err := o.confStore.Save(ctx, clone); err != nil {
		return err
	}
	o.conf = clone
	return nil
}

// Configuration returns a defensive copy of the current configuration.
func (o *Orchestrator) Configuration() *config.Configuration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conf == nil {
		return nil
	}
	return o.conf.Clone()
}

// Exceptions returns a copy of all exception records.
func (o *Orchestrator) Exceptions() []exception.Exception {
	return o.exceptions.List()
}

// History returns a copy of the retained execution history.
func (o *Orchestrator) History() []report.GateExecution {
	return o.log.Entries()
}

// unmetDependency returns the first dependency that has not executed with
// a non-FAIL status in this run, or "".
func unmetDependency(g config.Gate, statusByGate map[string]report.Status) string {
	for _, dep := range g.Dependencies {
		status, ran := statusByGate[dep]
		if !ran || status == report.StatusFail {
			return dep
		}
	}
	return ""
}

func summarize(executions []report.GateExecution, blocked bool) report.Summary {
	s := report.Summary{Total: len(executions), Blocked: blocked}
	for _, exec := range executions {
		switch exec.Status {
		case report.StatusPass:
			s.Passed++
		case report.StatusFail:
			s.Failed++
		case report.StatusWarning:
			s.Warnings++
		case report.StatusSkip:
			// Gates themselves never carry SKIP; criteria do.
		}
		for _, r := range exec.Results {
			if r.Status == report.StatusSkip {
				s.Skipped++
			}
		}
	}
	return s
}

func overallStatus(executions []report.GateExecution, blocked bool) report.Status {
	if blocked {
		return report.StatusFail
	}
	status := report.StatusPass
	for _, exec := range executions {
		switch exec.Status {
		case report.StatusFail:
			return report.StatusFail
		case report.StatusWarning:
			status = report.StatusWarning
		case report.StatusPass, report.StatusSkip:
		}
	}
	return status
}

// recommend builds the ordered human-facing explanation of the run. It
// must always say why a run was blocked, naming the failing gates.
func recommend(executions []report.GateExecution, conf *config.Configuration, blocked bool) []string {
	var recs []string

	var failed, warned []report.GateExecution
	for _, exec := range executions {
		switch exec.Status {
		case report.StatusFail:
			failed = append(failed, exec)
		case report.StatusWarning:
			warned = append(warned, exec)
		case report.StatusPass, report.StatusSkip:
		}
	}

	if blocked {
		recs = append(recs,
			"🚫 Deployment blocked: one or more blocking quality gates failed",
			"Address the critical issues below before attempting to ship")
	}

	if len(failed) > 0 {
		recs = append(recs, fmt.Sprintf("%d quality gate(s) failed:", len(failed)))
		for _, exec := range failed {
			name := exec.GateID
			if g := conf.Gate(exec.GateID); g != nil {
				name = g.Name
			}
			recs = append(recs, fmt.Sprintf("  - %s (%s) scored %.2f", name, exec.GateID, exec.OverallScore))
		}
	}

	if len(warned) > 0 {
		recs = append(recs,
			fmt.Sprintf("%d quality gate(s) finished with warnings", len(warned)),
			"Review warning gates and improve their scores before the next release")
	}

	if len(failed) == 0 && len(warned) == 0 && !blocked {
		recs = append(recs,
			"✅ All quality gates passed",
			"Ready for deployment")
	}

	return recs
}
