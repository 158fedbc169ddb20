// Package criterion evaluates a single metric value against a criterion's
// threshold and scores the outcome on a 0–100 scale.
package criterion

import (
	"math"

	"github.com/irahardianto/shipgate/internal/engine/config"
)

// Compare applies the criterion operator to the actual value.
// Unknown operators fail closed.
func Compare(actual, threshold float64, op config.Operator) bool {
	switch op {
	case config.OpGT:
		return actual > threshold
	case config.OpLT:
		return actual < threshold
	case config.OpGTE:
		return actual >= threshold
	case config.OpLTE:
		return actual <= threshold
	case config.OpEQ:
		return actual == threshold
	case config.OpNEQ:
		return actual != threshold
	default:
		return false
	}
}

// Score maps an evaluation outcome onto 0–100. Passing criteria land in
// [80,100] scaled by margin beyond the threshold; failing criteria land in
// [0,50] scaled by how far off they are. A zero threshold has no meaningful
// relative margin, so it scores at the unscaled boundary: 100 when passed,
// 0 when failed.
func Score(actual, threshold float64, op config.Operator, passed bool) float64 {
	if threshold == 0 {
		if passed {
			return 100
		}
		return 0
	}

	if passed {
		switch op {
		case config.OpGTE:
			return math.Min(100, 80+(actual-threshold)/threshold*20)
		case config.OpLTE:
			return math.Min(100, 80+(threshold-actual)/threshold*20)
		default:
			return 100
		}
	}

	return math.Max(0, 50-math.Abs(actual-threshold)/math.Abs(threshold)*50)
}

// Evaluate runs Compare and Score in one step.
func Evaluate(c config.Criterion, actual float64) (passed bool, score float64) {
	passed = Compare(actual, c.Threshold, c.Operator)
	score = Score(actual, c.Threshold, c.Operator, passed)
	return passed, score
}
