package pipeline

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/irahardianto/shipgate/internal/engine/config"
	"github.com/irahardianto/shipgate/internal/engine/exception"
	"github.com/irahardianto/shipgate/internal/engine/metrics"
	"github.com/irahardianto/shipgate/internal/engine/report"
	"github.com/irahardianto/shipgate/internal/storage"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newInitialized(t *testing.T) (*Orchestrator, *storage.MemStore) {
	t.Helper()
	docs := storage.NewMemStore()
	o := New(docs, WithClock(func() time.Time { return testNow }))
	if err := o.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	return o, docs
}

func allPassingContext() metrics.Context {
	return metrics.Context{
		"test_pass_rate": 100,
		"critical_bugs":  0,
		"responseTime":   50,
		"memoryUsage":    128,
		"code_coverage":  85,
		"quality_score":  85,
	}
}

func TestExecute_ScenarioA_AllPass(t *testing.T) {
	o, _ := newInitialized(t)

	res, err := o.Execute(context.Background(), allPassingContext())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if res.OverallStatus != report.StatusPass {
		t.Errorf("expected PASS, got %s", res.OverallStatus)
	}
	if len(res.Executions) != 3 {
		t.Fatalf("expected 3 executions, got %d", len(res.Executions))
	}
	if res.Summary.Passed != 3 || res.Summary.Failed != 0 || res.Summary.Blocked {
		t.Errorf("unexpected summary: %+v", res.Summary)
	}
	// Declaration order preserved.
	order := []string{"critical-functionality", "performance-standards", "quality-metrics"}
	for i, want := range order {
		if res.Executions[i].GateID != want {
			t.Errorf("execution %d: expected %s, got %s", i, want, res.Executions[i].GateID)
		}
	}
	found := false
	for _, rec := range res.Recommendations {
		if strings.Contains(rec, "Ready for deployment") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected deployment-ready recommendation, got %v", res.Recommendations)
	}
}

func TestExecute_ScenarioB_CriticalFailureBlocksAndFailsFast(t *testing.T) {
	o, _ := newInitialized(t)

	res, err := o.Execute(context.Background(), metrics.Context{
		"test_pass_rate": 95,
		"critical_bugs":  1,
		"responseTime":   80,
		"memoryUsage":    256,
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if res.OverallStatus != report.StatusFail {
		t.Errorf("expected FAIL, got %s", res.OverallStatus)
	}
	if !res.Summary.Blocked {
		t.Error("expected blocked run")
	}
	if len(res.Executions) != 1 || res.Executions[0].GateID != "critical-functionality" {
		t.Fatalf("fail-fast must stop after the blocking failure, got %v", gateIDs(res.Executions))
	}
	if res.Executions[0].Status != report.StatusFail || res.Executions[0].OverallScore != 0 {
		t.Errorf("mandatory failure must FAIL with score 0, got %+v", res.Executions[0])
	}
	// The recommendations must name the failing gate.
	joined := strings.Join(res.Recommendations, "\n")
	if !strings.Contains(joined, "Deployment blocked") || !strings.Contains(joined, "critical-functionality") {
		t.Errorf("recommendations must explain the block: %v", res.Recommendations)
	}
}

func TestExecute_DependencySkipWithoutFailFast(t *testing.T) {
	o, _ := newInitialized(t)

	// Disable fail-fast so the run continues past the blocking failure;
	// performance-standards must still be absent (unmet dependency).
	conf := o.Configuration()
	conf.GlobalSettings.FailFast = false
	if err := o.ReplaceConfiguration(context.Background(), conf); err != nil {
		t.Fatal(err)
	}

	res, err := o.Execute(context.Background(), metrics.Context{
		"test_pass_rate": 95,
		"critical_bugs":  1,
		"responseTime":   80,
		"memoryUsage":    256,
		"code_coverage":  85,
		"quality_score":  85,
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	ids := gateIDs(res.Executions)
	if !reflect.DeepEqual(ids, []string{"critical-functionality", "quality-metrics"}) {
		t.Errorf("expected performance-standards absent entirely, got %v", ids)
	}
	if res.Summary.Total != 2 {
		t.Errorf("skipped-for-dependency gates must not count, got total %d", res.Summary.Total)
	}
}

func TestExecute_ScenarioC_WarningBand(t *testing.T) {
	o, _ := newInitialized(t)

	ctx := allPassingContext()
	ctx["quality_score"] = 70 // fails its criterion, dragging the gate into the warning band

	res, err := o.Execute(context.Background(), ctx)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if res.OverallStatus != report.StatusWarning {
		t.Errorf("expected WARNING, got %s", res.OverallStatus)
	}
	if res.Summary.Blocked {
		t.Error("warning run must not be blocked")
	}
	var quality *report.GateExecution
	for i := range res.Executions {
		if res.Executions[i].GateID == "quality-metrics" {
			quality = &res.Executions[i]
		}
	}
	if quality == nil || quality.Status != report.StatusWarning {
		t.Errorf("expected quality-metrics WARNING, got %+v", quality)
	}
}

func TestExecute_ScenarioD_ExceptionSkip(t *testing.T) {
	o, _ := newInitialized(t)
	ctx := context.Background()

	_, err := o.CreateException(ctx, exception.CreateRequest{
		GateID:     "critical-functionality",
		CriteriaID: "test-pass-rate",
		Reason:     "suite quarantined pending fix",
		Approver:   "release-captain",
		ExpiresAt:  testNow.Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create exception failed: %v", err)
	}

	mctx := allPassingContext()
	mctx["test_pass_rate"] = 50

	res, err := o.Execute(ctx, mctx)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	critical := res.Executions[0]
	if critical.Status != report.StatusPass {
		t.Errorf("gate with excepted criterion must still PASS, got %s", critical.Status)
	}
	skipped := critical.Results[0]
	if skipped.CriteriaID != "test-pass-rate" || skipped.Status != report.StatusSkip {
		t.Fatalf("expected SKIP for excepted criterion, got %+v", skipped)
	}
	if !strings.Contains(skipped.Message, "exception") {
		t.Errorf("skip message must mention the exception, got %q", skipped.Message)
	}
	if res.Summary.Skipped != 1 {
		t.Errorf("expected 1 skipped criterion in summary, got %d", res.Summary.Skipped)
	}
}

func TestExecute_Deterministic(t *testing.T) {
	o, _ := newInitialized(t)
	ctx := allPassingContext()
	ctx["quality_score"] = 70

	first, err := o.Execute(context.Background(), ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.Execute(context.Background(), ctx)
	if err != nil {
		t.Fatal(err)
	}

	if first.OverallStatus != second.OverallStatus {
		t.Errorf("status differs across identical runs: %s vs %s", first.OverallStatus, second.OverallStatus)
	}
	if !reflect.DeepEqual(first.Recommendations, second.Recommendations) {
		t.Errorf("recommendations differ across identical runs")
	}
	if len(first.Executions) != len(second.Executions) {
		t.Fatal("execution counts differ")
	}
	for i := range first.Executions {
		if first.Executions[i].Status != second.Executions[i].Status ||
			first.Executions[i].OverallScore != second.Executions[i].OverallScore {
			t.Errorf("execution %d differs across identical runs", i)
		}
	}
}

func TestExecute_PersistsHistoryAndReport(t *testing.T) {
	o, docs := newInitialized(t)
	ctx := context.Background()

	if _, err := o.Execute(ctx, allPassingContext()); err != nil {
		t.Fatal(err)
	}

	if got := o.History(); len(got) != 3 {
		t.Errorf("expected 3 history entries, got %d", len(got))
	}

	md, err := docs.Read(ctx, report.DocumentKey)
	if err != nil {
		t.Fatalf("expected persisted report: %v", err)
	}
	for _, want := range []string{"# Quality Gate Execution Report", "**Overall status:** PASS", "## Recommendations"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestExecute_RequiresInitialize(t *testing.T) {
	o := New(storage.NewMemStore())
	if _, err := o.Execute(context.Background(), metrics.Context{}); err != ErrNotInitialized {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestAdjustThresholds_PersistedAndIsolated(t *testing.T) {
	o, docs := newInitialized(t)
	ctx := context.Background()

	rate := 85.0
	if err := o.AdjustThresholds(ctx, config.LevelMajor, config.ThresholdAdjustment{MinPassRate: &rate}); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}

	conf := o.Configuration()
	if conf.Thresholds.Major.MinPassRate != 85 || conf.Thresholds.Major.MaxFailures != 1 {
		t.Errorf("partial update broken: %+v", conf.Thresholds.Major)
	}
	if conf.Thresholds.Critical.MinPassRate != 100 || conf.Thresholds.Minor.MinPassRate != 80 {
		t.Error("other levels must be untouched")
	}

	// Survives a reload from the same store.
	fresh := New(docs, WithClock(func() time.Time { return testNow }))
	if err := fresh.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if fresh.Configuration().Thresholds.Major.MinPassRate != 85 {
		t.Error("adjustment not persisted")
	}
}

func TestConfiguration_ReturnsDefensiveCopy(t *testing.T) {
	o, _ := newInitialized(t)

	conf := o.Configuration()
	conf.Gates[0].Enabled = false
	conf.Thresholds.Critical.MinPassRate = 1

	again := o.Configuration()
	if !again.Gates[0].Enabled || again.Thresholds.Critical.MinPassRate != 100 {
		t.Error("Configuration must return a defensive copy")
	}
}

func TestExecute_DisabledGateIsSkipped(t *testing.T) {
	o, _ := newInitialized(t)

	conf := o.Configuration()
	conf.Gate("quality-metrics").Enabled = false
	if err := o.ReplaceConfiguration(context.Background(), conf); err != nil {
		t.Fatal(err)
	}

	res, err := o.Execute(context.Background(), allPassingContext())
	if err != nil {
		t.Fatal(err)
	}
	ids := gateIDs(res.Executions)
	if !reflect.DeepEqual(ids, []string{"critical-functionality", "performance-standards"}) {
		t.Errorf("disabled gate must not run, got %v", ids)
	}
}

func gateIDs(executions []report.GateExecution) []string {
	out := make([]string, len(executions))
	for i, e := range executions {
		out[i] = e.GateID
	}
	return out
}
