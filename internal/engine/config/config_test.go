package config

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/irahardianto/shipgate/internal/storage"
)

func TestDefault_Shape(t *testing.T) {
	cfg := Default()

	if len(cfg.Gates) != 3 {
		t.Fatalf("expected 3 default gates, got %d", len(cfg.Gates))
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}

	critical := cfg.Gate("critical-functionality")
	if critical == nil {
		t.Fatal("missing critical-functionality gate")
	}
	if critical.Level != LevelCritical || !critical.Blocking || critical.Order != 1 {
		t.Errorf("unexpected critical gate shape: %+v", critical)
	}
	if critical.Timeout != 300 {
		t.Errorf("expected 300s timeout, got %d", critical.Timeout)
	}

	perf := cfg.Gate("performance-standards")
	if perf == nil {
		t.Fatal("missing performance-standards gate")
	}
	if len(perf.Dependencies) != 1 || perf.Dependencies[0] != "critical-functionality" {
		t.Errorf("performance gate must depend on critical-functionality, got %v", perf.Dependencies)
	}

	quality := cfg.Gate("quality-metrics")
	if quality == nil {
		t.Fatal("missing quality-metrics gate")
	}
	if quality.Blocking {
		t.Error("quality-metrics must not be blocking")
	}

	if cfg.Thresholds.Critical.MinPassRate != 100 || cfg.Thresholds.Major.MinPassRate != 90 || cfg.Thresholds.Minor.MinPassRate != 80 {
		t.Errorf("unexpected default thresholds: %+v", cfg.Thresholds)
	}
	if !cfg.GlobalSettings.FailFast {
		t.Error("fail-fast must be enabled by default")
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := &Configuration{
		Gates: []Gate{
			{
				ID:    "a",
				Level: "BOGUS",
				Criteria: []Criterion{
					{ID: "c1", Metric: "m", Operator: "~", Weight: 0},
				},
			},
			{ID: "a", Level: LevelMinor, Dependencies: []string{"ghost"}},
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{"unknown level", "unknown operator", "weight must be positive", "duplicate gate id", "dependency \"ghost\""} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error mentioning %q, got: %s", want, msg)
		}
	}
}

func TestAdjustThresholds_PartialUpdate(t *testing.T) {
	cfg := Default()
	rate := 85.0

	if err := cfg.AdjustThresholds(LevelMajor, ThresholdAdjustment{MinPassRate: &rate}); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}

	if cfg.Thresholds.Major.MinPassRate != 85 {
		t.Errorf("expected major minPassRate 85, got %v", cfg.Thresholds.Major.MinPassRate)
	}
	if cfg.Thresholds.Major.MaxFailures != 1 {
		t.Errorf("maxFailures must be untouched, got %d", cfg.Thresholds.Major.MaxFailures)
	}
	if cfg.Thresholds.Critical.MinPassRate != 100 || cfg.Thresholds.Minor.MinPassRate != 80 {
		t.Error("other levels must be untouched")
	}
}

func TestAdjustThresholds_RejectsNegativeRate(t *testing.T) {
	cfg := Default()
	rate := -5.0
	if err := cfg.AdjustThresholds(LevelMinor, ThresholdAdjustment{MinPassRate: &rate}); err == nil {
		t.Fatal("expected error for negative pass rate")
	}
}

func TestAdjustThresholds_UnknownLevel(t *testing.T) {
	cfg := Default()
	if err := cfg.AdjustThresholds("SEVERE", ThresholdAdjustment{}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestClone_Independent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()

	clone.Gates[0].Criteria[0].Threshold = 1
	clone.Gates[1].Dependencies[0] = "other"
	clone.Thresholds.Minor.MinPassRate = 5

	if cfg.Gates[0].Criteria[0].Threshold == 1 {
		t.Error("criteria mutated through clone")
	}
	if cfg.Gates[1].Dependencies[0] != "critical-functionality" {
		t.Error("dependencies mutated through clone")
	}
	if cfg.Thresholds.Minor.MinPassRate != 80 {
		t.Error("thresholds mutated through clone")
	}
}

func TestStore_SeedsDefaultsWhenAbsent(t *testing.T) {
	docs := storage.NewMemStore()
	store := NewStoreWithClock(docs, func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) })
	ctx := context.Background()

	cfg, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.Gates) != 3 {
		t.Fatalf("expected seeded defaults, got %d gates", len(cfg.Gates))
	}

	// The defaults must have been persisted.
	data, err := docs.Read(ctx, DocumentKey)
	if err != nil {
		t.Fatalf("expected persisted configuration: %v", err)
	}
	var persisted Configuration
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("persisted document is not valid JSON: %v", err)
	}
	if !persisted.LastUpdated.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("lastUpdated not stamped: %v", persisted.LastUpdated)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	docs := storage.NewMemStore()
	store := NewStore(docs)
	ctx := context.Background()

	cfg := Default()
	rate := 70.0
	if err := cfg.AdjustThresholds(LevelMinor, ThresholdAdjustment{MinPassRate: &rate}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Thresholds.Minor.MinPassRate != 70 {
		t.Errorf("expected persisted adjustment, got %v", loaded.Thresholds.Minor.MinPassRate)
	}
}

func TestStore_RejectsMalformedDocument(t *testing.T) {
	docs := storage.NewMemStore()
	_ = docs.Write(context.Background(), DocumentKey, []byte("{not json"))
	store := NewStore(docs)

	if _, err := store.Load(context.Background()); err == nil {
		t.Fatal("expected error for malformed configuration document")
	}
}

func TestGate_TimeoutDuration(t *testing.T) {
	g := Gate{Timeout: 180}
	if d := g.TimeoutDuration(5 * time.Minute); d != 3*time.Minute {
		t.Errorf("expected 3m, got %v", d)
	}
	g.Timeout = 0
	if d := g.TimeoutDuration(5 * time.Minute); d != 5*time.Minute {
		t.Errorf("expected fallback 5m, got %v", d)
	}
}
