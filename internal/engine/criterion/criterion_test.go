package criterion

import (
	"math"
	"testing"

	"github.com/irahardianto/shipgate/internal/engine/config"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		actual    float64
		threshold float64
		op        config.Operator
		want      bool
	}{
		{"gt pass", 5, 3, config.OpGT, true},
		{"gt fail equal", 3, 3, config.OpGT, false},
		{"lt pass", 2, 3, config.OpLT, true},
		{"lt fail", 3, 3, config.OpLT, false},
		{"gte pass equal", 3, 3, config.OpGTE, true},
		{"gte fail", 2.9, 3, config.OpGTE, false},
		{"lte pass", 3, 3, config.OpLTE, true},
		{"lte fail", 3.1, 3, config.OpLTE, false},
		{"eq pass", 100, 100, config.OpEQ, true},
		{"eq fail", 99.9, 100, config.OpEQ, false},
		{"neq pass", 1, 0, config.OpNEQ, true},
		{"neq fail", 0, 0, config.OpNEQ, false},
		{"unknown operator fails closed", 5, 3, "~", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.actual, tt.threshold, tt.op); got != tt.want {
				t.Errorf("Compare(%v, %v, %q) = %v, want %v", tt.actual, tt.threshold, tt.op, got, tt.want)
			}
		})
	}
}

func TestScore_PassingBands(t *testing.T) {
	tests := []struct {
		name      string
		actual    float64
		threshold float64
		op        config.Operator
		want      float64
	}{
		// >= : 80 plus 20 scaled by overshoot margin.
		{"gte at threshold", 80, 80, config.OpGTE, 80},
		{"gte with margin", 90, 80, config.OpGTE, 82.5},
		{"gte capped at 100", 200, 80, config.OpGTE, 100},
		// <= : 80 plus 20 scaled by headroom.
		{"lte at threshold", 100, 100, config.OpLTE, 80},
		{"lte with headroom", 80, 100, config.OpLTE, 84},
		{"lte at zero usage", 0, 100, config.OpLTE, 100},
		// Other operators score flat 100 on pass.
		{"eq flat", 100, 100, config.OpEQ, 100},
		{"gt flat", 5, 3, config.OpGT, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.actual, tt.threshold, tt.op, true)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_FailingBands(t *testing.T) {
	tests := []struct {
		name      string
		actual    float64
		threshold float64
		want      float64
	}{
		{"just off", 79, 80, 49.375},
		{"half off", 40, 80, 25},
		{"fully off", 0, 80, 0},
		{"floor at zero", -100, 80, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.actual, tt.threshold, config.OpGTE, false)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_ZeroThresholdGuard(t *testing.T) {
	// "critical_bugs == 0" style criteria must not divide by zero.
	if got := Score(0, 0, config.OpEQ, true); got != 100 {
		t.Errorf("passed zero-threshold: got %v, want 100", got)
	}
	if got := Score(3, 0, config.OpEQ, false); got != 0 {
		t.Errorf("failed zero-threshold: got %v, want 0", got)
	}
	if math.IsNaN(Score(0, 0, config.OpEQ, false)) {
		t.Error("zero-threshold score must never be NaN")
	}
}

func TestEvaluate(t *testing.T) {
	c := config.Criterion{ID: "code-coverage", Threshold: 80, Operator: config.OpGTE}

	passed, score := Evaluate(c, 85)
	if !passed {
		t.Error("85 >= 80 must pass")
	}
	if math.Abs(score-81.25) > 1e-9 {
		t.Errorf("expected 81.25, got %v", score)
	}

	passed, score = Evaluate(c, 70)
	if passed {
		t.Error("70 >= 80 must fail")
	}
	if math.Abs(score-43.75) > 1e-9 {
		t.Errorf("expected 43.75, got %v", score)
	}
}
