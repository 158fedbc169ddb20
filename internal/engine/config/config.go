// Package config defines quality-gate, criterion, and threshold
// configuration, the hard-coded defaults, and persistence via the
// document store.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Level classifies a gate's severity and selects its threshold bucket.
type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelMajor    Level = "MAJOR"
	LevelMinor    Level = "MINOR"
)

// Valid reports whether the level is one of the known values.
func (l Level) Valid() bool {
	switch l {
	case LevelCritical, LevelMajor, LevelMinor:
		return true
	}
	return false
}

// Operator compares a metric value against a criterion threshold.
type Operator string

const (
	OpGT  Operator = ">"
	OpLT  Operator = "<"
	OpGTE Operator = ">="
	OpLTE Operator = "<="
	OpEQ  Operator = "=="
	OpNEQ Operator = "!="
)

// Valid reports whether the operator is one of the known comparisons.
func (o Operator) Valid() bool {
	switch o {
	case OpGT, OpLT, OpGTE, OpLTE, OpEQ, OpNEQ:
		return true
	}
	return false
}

// Criterion is a single thresholded check against one metric within a gate.
type Criterion struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Metric      string   `json:"metric"`
	Threshold   float64  `json:"threshold"`
	Operator    Operator `json:"operator"`
	Weight      float64  `json:"weight"`
	Mandatory   bool     `json:"mandatory"`
	Category    string   `json:"category,omitempty"`
}

// Gate is a named, ordered bundle of criteria representing one quality
// dimension. Blocking gates mark the whole run as blocked when they fail.
type Gate struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Level        Level       `json:"level"`
	Description  string      `json:"description,omitempty"`
	Criteria     []Criterion `json:"criteria"`
	Blocking     bool        `json:"blocking"`
	Enabled      bool        `json:"enabled"`
	Order        int         `json:"order"`
	Dependencies []string    `json:"dependencies,omitempty"`
	// Timeout bounds the gate's evaluation, in seconds. Zero falls back to
	// GlobalSettings.DefaultTimeout.
	Timeout int `json:"timeout,omitempty"`
}

// TimeoutDuration returns the gate timeout as a duration, falling back to
// the supplied default when the gate does not set one.
func (g *Gate) TimeoutDuration(fallback time.Duration) time.Duration {
	if g.Timeout > 0 {
		return time.Duration(g.Timeout) * time.Second
	}
	return fallback
}

// GlobalSettings holds run-wide execution knobs.
type GlobalSettings struct {
	EnableParallelExecution bool `json:"enableParallelExecution"`
	MaxConcurrentGates      int  `json:"maxConcurrentGates"`
	// DefaultTimeout is the per-gate fallback timeout, in seconds.
	DefaultTimeout int  `json:"defaultTimeout"`
	FailFast       bool `json:"failFast"`
	RetryAttempts  int  `json:"retryAttempts"`
	// RetryDelay is the pause between retry attempts, in milliseconds.
	RetryDelay int `json:"retryDelay"`
}

// LevelThreshold holds the pass bar for one gate level.
type LevelThreshold struct {
	MinPassRate float64 `json:"minPassRate"`
	MaxFailures int     `json:"maxFailures"`
}

// Thresholds maps each gate level to its pass bar.
type Thresholds struct {
	Critical LevelThreshold `json:"critical"`
	Major    LevelThreshold `json:"major"`
	Minor    LevelThreshold `json:"minor"`
}

// ForLevel returns the threshold bucket for the given level.
// Unknown levels fall back to the minor bucket.
func (t Thresholds) ForLevel(l Level) LevelThreshold {
	switch l {
	case LevelCritical:
		return t.Critical
	case LevelMajor:
		return t.Major
	case LevelMinor:
		return t.Minor
	}
	return t.Minor
}

// Configuration is the persisted quality-gate configuration document.
type Configuration struct {
	Version        string         `json:"version"`
	LastUpdated    time.Time      `json:"lastUpdated"`
	Gates          []Gate         `json:"gates"`
	GlobalSettings GlobalSettings `json:"globalSettings"`
	Thresholds     Thresholds     `json:"thresholds"`
}

// ThresholdAdjustment is a partial update to one level's threshold bucket.
// Nil fields are left untouched.
type ThresholdAdjustment struct {
	MinPassRate *float64
	MaxFailures *int
}

// AdjustThresholds applies a partial update to the given level's bucket.
// Negative pass rates are rejected; other values are applied as given.
func (c *Configuration) AdjustThresholds(level Level, adj ThresholdAdjustment) error {
	if !level.Valid() {
		return fmt.Errorf("unknown gate level %q", level)
	}
	if adj.MinPassRate != nil && *adj.MinPassRate < 0 {
		return fmt.Errorf("minPassRate must not be negative, got %v", *adj.MinPassRate)
	}

	var bucket *LevelThreshold
	switch level {
	case LevelCritical:
		bucket = &c.Thresholds.Critical
	case LevelMajor:
		bucket = &c.Thresholds.Major
	case LevelMinor:
		bucket = &c.Thresholds.Minor
	}

	if adj.MinPassRate != nil {
		bucket.MinPassRate = *adj.MinPassRate
	}
	if adj.MaxFailures != nil {
		bucket.MaxFailures = *adj.MaxFailures
	}
	return nil
}

// Gate returns the gate with the given id, or nil.
func (c *Configuration) Gate(id string) *Gate {
	for i := range c.Gates {
		if c.Gates[i].ID == id {
			return &c.Gates[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration so callers can hand out
// snapshots without exposing live state.
func (c *Configuration) Clone() *Configuration {
	out := *c
	out.Gates = make([]Gate, len(c.Gates))
	for i, g := range c.Gates {
		cg := g
		cg.Criteria = append([]Criterion(nil), g.Criteria...)
		cg.Dependencies = append([]string(nil), g.Dependencies...)
		out.Gates[i] = cg
	}
	return &out
}

// Validate checks structural consistency of the configuration.
// All problems are reported at once so users can fix everything in one pass.
func Validate(c *Configuration) error {
	var errs []error
	seen := make(map[string]bool, len(c.Gates))

	for _, g := range c.Gates {
		if g.ID == "" {
			errs = append(errs, errors.New("gate with missing required field 'id'"))
			continue
		}
		if seen[g.ID] {
			errs = append(errs, fmt.Errorf("duplicate gate id %q", g.ID))
		}
		seen[g.ID] = true

		if !g.Level.Valid() {
			errs = append(errs, fmt.Errorf("gate %q: unknown level %q (valid: CRITICAL, MAJOR, MINOR)", g.ID, g.Level))
		}
		for _, cr := range g.Criteria {
			if cr.ID == "" {
				errs = append(errs, fmt.Errorf("gate %q: criterion with missing required field 'id'", g.ID))
				continue
			}
			if !cr.Operator.Valid() {
				errs = append(errs, fmt.Errorf("gate %q: criterion %q: unknown operator %q", g.ID, cr.ID, cr.Operator))
			}
			if cr.Weight <= 0 {
				errs = append(errs, fmt.Errorf("gate %q: criterion %q: weight must be positive, got %v", g.ID, cr.ID, cr.Weight))
			}
			if cr.Metric == "" {
				errs = append(errs, fmt.Errorf("gate %q: criterion %q: missing required field 'metric'", g.ID, cr.ID))
			}
		}
	}

	// Dependencies must reference declared gates.
	for _, g := range c.Gates {
		for _, dep := range g.Dependencies {
			if !seen[dep] {
				errs = append(errs, fmt.Errorf("gate %q: dependency %q does not exist", g.ID, dep))
			}
		}
	}

	return errors.Join(errs...)
}

// Default returns the hard-coded configuration seeded on first run:
// three gates covering critical functionality, performance, and code
// quality, with conservative thresholds per level.
func Default() *Configuration {
	return &Configuration{
		Version: "1.0.0",
		Gates: []Gate{
			{
				ID:          "critical-functionality",
				Name:        "Critical Functionality",
				Level:       LevelCritical,
				Description: "Core behavior must be fully intact before anything ships",
				Criteria: []Criterion{
					{
						ID:        "test-pass-rate",
						Name:      "Test Pass Rate",
						Metric:    "test_pass_rate",
						Threshold: 100,
						Operator:  OpEQ,
						Weight:    10,
						Mandatory: true,
						Category:  "testing",
					},
					{
						ID:        "critical-bugs",
						Name:      "Critical Bugs",
						Metric:    "critical_bugs",
						Threshold: 0,
						Operator:  OpEQ,
						Weight:    10,
						Mandatory: true,
						Category:  "defects",
					},
				},
				Blocking: true,
				Enabled:  true,
				Order:    1,
				Timeout:  300,
			},
			{
				ID:          "performance-standards",
				Name:        "Performance Standards",
				Level:       LevelMajor,
				Description: "Latency and resource budgets for the release",
				Criteria: []Criterion{
					{
						ID:        "response-time",
						Name:      "Response Time",
						Metric:    "responseTime",
						Threshold: 100,
						Operator:  OpLTE,
						Weight:    8,
						Mandatory: true,
						Category:  "performance",
					},
					{
						ID:        "memory-usage",
						Name:      "Memory Usage",
						Metric:    "memoryUsage",
						Threshold: 512,
						Operator:  OpLTE,
						Weight:    6,
						Mandatory: false,
						Category:  "performance",
					},
				},
				Blocking:     true,
				Enabled:      true,
				Order:        2,
				Dependencies: []string{"critical-functionality"},
				Timeout:      180,
			},
			{
				ID:          "quality-metrics",
				Name:        "Quality Metrics",
				Level:       LevelMinor,
				Description: "Coverage and maintainability signals",
				Criteria: []Criterion{
					{
						ID:        "code-coverage",
						Name:      "Code Coverage",
						Metric:    "code_coverage",
						Threshold: 80,
						Operator:  OpGTE,
						Weight:    7,
						Mandatory: false,
						Category:  "quality",
					},
					{
						ID:        "code-quality",
						Name:      "Code Quality",
						Metric:    "quality_score",
						Threshold: 80,
						Operator:  OpGTE,
						Weight:    5,
						Mandatory: false,
						Category:  "quality",
					},
				},
				Blocking: false,
				Enabled:  true,
				Order:    3,
				Timeout:  120,
			},
		},
		GlobalSettings: GlobalSettings{
			EnableParallelExecution: false,
			MaxConcurrentGates:      3,
			DefaultTimeout:          300,
			FailFast:                true,
			RetryAttempts:           2,
			RetryDelay:              1000,
		},
		Thresholds: Thresholds{
			Critical: LevelThreshold{MinPassRate: 100, MaxFailures: 0},
			Major:    LevelThreshold{MinPassRate: 90, MaxFailures: 1},
			Minor:    LevelThreshold{MinPassRate: 80, MaxFailures: 2},
		},
	}
}
