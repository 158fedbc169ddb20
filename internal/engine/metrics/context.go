// Package metrics defines the per-run metrics context supplied by callers
// and the built-in aggregate metrics derived from it.
package metrics

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Context is the flat metric-name to value mapping evaluated during a run.
// Values arrive from callers or JSON documents, so any type is accepted;
// coercion to a number happens at lookup time.
type Context map[string]any

// UnknownMetricError is returned from Resolve for names that have neither
// a context entry nor a built-in computation.
type UnknownMetricError struct {
	Name string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %q: no context value and no built-in computation", e.Name)
}

// Value returns the numeric value for key. The second return is false when
// the key is absent. A present value that cannot coerce to a number is an
// error, so instrumentation bugs surface instead of evaluating as zero.
func (c Context) Value(key string) (float64, bool, error) {
	raw, ok := c[key]
	if !ok {
		return 0, false, nil
	}
	v, err := coerce(raw)
	if err != nil {
		return 0, true, fmt.Errorf("metric %q: %w", key, err)
	}
	return v, true, nil
}

// Float returns the value for key, defaulting to 0 when absent.
// Malformed present values still error.
func (c Context) Float(key string) (float64, error) {
	v, _, err := c.Value(key)
	return v, err
}

// Merge overlays other onto c, with entries in other winning.
func (c Context) Merge(other Context) {
	for k, v := range other {
		c[k] = v
	}
}

// Clone returns a shallow copy of the context.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Resolve returns the value for a criterion's metric name: a direct context
// entry wins, then a built-in aggregate computation over the context.
// A name with neither is an UnknownMetricError.
func Resolve(name string, c Context) (float64, error) {
	v, ok, err := c.Value(name)
	if err != nil {
		return 0, err
	}
	if ok {
		return v, nil
	}

	if builtin, ok := builtins[name]; ok {
		return builtin(c)
	}
	return 0, &UnknownMetricError{Name: name}
}

func coerce(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", raw)
	}
}
