package collect

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/irahardianto/shipgate/internal/engine/metrics"
)

// GoTestCollector derives test metrics from `go test -json` output
// (newline-delimited TestEvent objects).
type GoTestCollector struct{}

// NewGoTestCollector creates a new GoTestCollector.
func NewGoTestCollector() *GoTestCollector {
	return &GoTestCollector{}
}

// testEvent is a single event emitted by `go test -json`.
// See: https://pkg.go.dev/cmd/test2json#hdr-Output_Format
type testEvent struct {
	Action string `json:"Action"`
	Test   string `json:"Test"`
}

// Collect counts per-test pass/fail/skip terminal events and derives
// totalTests, passedTests, failedTests, skippedTests, and test_pass_rate.
func (c *GoTestCollector) Collect(_ context.Context, data []byte) (metrics.Context, error) {
	var passed, failed, skipped int

	scanner := bufio.NewScanner(bytes.NewReader(data))
	// Individual events can exceed the default token size when test output
	// is embedded, so allow long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev testEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("parsing go test JSON output: %w", err)
		}
		// Package-level events carry no test name and are not tests.
		if ev.Test == "" {
			continue
		}
		switch ev.Action {
		case "pass":
			passed++
		case "fail":
			failed++
		case "skip":
			skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading go test JSON output: %w", err)
	}

	total := passed + failed + skipped
	rate := 100.0
	if total > 0 {
		rate = float64(passed) / float64(total) * 100
	}

	return metrics.Context{
		"totalTests":     total,
		"passedTests":    passed,
		"failedTests":    failed,
		"skippedTests":   skipped,
		"test_pass_rate": rate,
	}, nil
}
