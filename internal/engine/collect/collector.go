// Package collect turns raw tool output into metrics-context entries so
// gate criteria can evaluate the numbers tools actually produced.
package collect

import (
	"context"

	"github.com/irahardianto/shipgate/internal/engine/metrics"
)

// Collector derives metric entries from one tool's raw output.
type Collector interface {
	// Collect parses the raw output and returns the derived metric entries.
	Collect(ctx context.Context, data []byte) (metrics.Context, error)
}
