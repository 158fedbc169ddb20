// Package history keeps the bounded log of past gate executions that
// later runs' dependency checks and operators rely on.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/irahardianto/shipgate/internal/engine/report"
	"github.com/irahardianto/shipgate/internal/platform/logger"
	"github.com/irahardianto/shipgate/internal/storage"
)

// DocumentKey is the document-store key holding the execution history.
const DocumentKey = "quality-gates-history.json"

// DefaultLimit caps how many executions the log retains.
const DefaultLimit = 100

// Log is a bounded, persisted list of gate executions, most recent last.
type Log struct {
	docs  storage.DocumentStore
	limit int

	mu      sync.Mutex
	entries []report.GateExecution
}

// NewLog creates a Log retaining the most recent DefaultLimit executions.
func NewLog(docs storage.DocumentStore) *Log {
	return &Log{docs: docs, limit: DefaultLimit}
}

// NewLogWithLimit creates a Log with a custom retention cap.
func NewLogWithLimit(docs storage.DocumentStore, limit int) *Log {
	return &Log{docs: docs, limit: limit}
}

// Load reads the persisted history. A missing document is an empty log.
func (l *Log) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.docs.Read(ctx, DocumentKey)
	if errors.Is(err, storage.ErrNotFound) {
		l.entries = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading execution history: %w", err)
	}

	var entries []report.GateExecution
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing execution history document: %w", err)
	}
	l.entries = entries
	logger.FromContext(ctx).Debug("execution history loaded", "entries", len(entries))
	return nil
}

// Append adds a run's executions, trims to the retention cap, and persists
// the full document. A persistence failure is returned to the caller: a
// run that is not recorded would be invisible to later dependency checks.
func (l *Log) Append(ctx context.Context, executions []report.GateExecution) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	before := l.entries
	l.entries = append(l.entries, executions...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}

	if err := l.save(ctx); err != nil {
		l.entries = before
		return err
	}
	return nil
}

// Entries returns a copy of the retained executions, oldest first.
func (l *Log) Entries() []report.GateExecution {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]report.GateExecution, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Clone()
	}
	return out
}

// save persists the full history array. Callers hold the lock.
func (l *Log) save(ctx context.Context) error {
	entries := l.entries
	if entries == nil {
		entries = []report.GateExecution{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding execution history: %w", err)
	}
	if err := l.docs.Write(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("persisting execution history: %w", err)
	}
	return nil
}
