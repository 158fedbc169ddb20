// Package exception manages time-bounded overrides that suppress
// evaluation of a specific gate criterion, or a whole gate, with full
// provenance for later audit.
package exception

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/irahardianto/shipgate/internal/platform/logger"
	"github.com/irahardianto/shipgate/internal/storage"
)

// DocumentKey is the document-store key holding the exceptions array.
const DocumentKey = "quality-gates-exceptions.json"

// Exception is a time-bounded, auditable override. An empty CriteriaID
// applies the exception to every criterion in the gate.
type Exception struct {
	ID         string    `json:"id"`
	GateID     string    `json:"gateId"`
	CriteriaID string    `json:"criteriaId,omitempty"`
	Reason     string    `json:"reason"`
	Approver   string    `json:"approver"`
	ApprovedAt time.Time `json:"approvedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Conditions []string  `json:"conditions,omitempty"`
	Active     bool      `json:"active"`
}

// InEffect reports whether this exception currently suppresses the given
// (gate, criterion) pair: it must be active, unexpired, match the gate,
// and either be gate-wide or name the criterion.
func (e *Exception) InEffect(gateID, criteriaID string, now time.Time) bool {
	if !e.Active || e.GateID != gateID {
		return false
	}
	if !e.ExpiresAt.After(now) {
		return false
	}
	return e.CriteriaID == "" || e.CriteriaID == criteriaID
}

// CreateRequest carries the provenance for a new exception.
type CreateRequest struct {
	GateID     string
	CriteriaID string
	Reason     string
	Approver   string
	ApprovedAt time.Time
	ExpiresAt  time.Time
	Conditions []string
}

// Registry owns the exception records and their persistence.
// All mutations rewrite the persisted array in full.
type Registry struct {
	docs  storage.DocumentStore
	clock func() time.Time

	mu    sync.Mutex
	items []Exception
}

// NewRegistry creates a Registry on top of the document store.
func NewRegistry(docs storage.DocumentStore) *Registry {
	return &Registry{docs: docs, clock: time.Now}
}

// NewRegistryWithClock creates a Registry with an injected clock for tests.
func NewRegistryWithClock(docs storage.DocumentStore, clock func() time.Time) *Registry {
	return &Registry{docs: docs, clock: clock}
}

// Load reads the persisted exceptions. A missing document is an empty
// registry, not an error.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.docs.Read(ctx, DocumentKey)
	if errors.Is(err, storage.ErrNotFound) {
		r.items = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading exceptions: %w", err)
	}

	var items []Exception
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parsing exceptions document: %w", err)
	}
	r.items = items
	logger.FromContext(ctx).Debug("exceptions loaded", "count", len(items))
	return nil
}

// Create records a new active exception and persists the registry.
// The generated id is returned.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exc := Exception{
		ID:         uuid.NewString(),
		GateID:     req.GateID,
		CriteriaID: req.CriteriaID,
		Reason:     req.Reason,
		Approver:   req.Approver,
		ApprovedAt: req.ApprovedAt,
		ExpiresAt:  req.ExpiresAt,
		Conditions: append([]string(nil), req.Conditions...),
		Active:     true,
	}
	if exc.ApprovedAt.IsZero() {
		exc.ApprovedAt = r.clock()
	}

	r.items = append(r.items, exc)
	if err := r.save(ctx); err != nil {
		// Roll the in-memory append back so memory matches disk.
		r.items = r.items[:len(r.items)-1]
		return "", err
	}

	logger.FromContext(ctx).Info("exception created",
		"id", exc.ID, "gate", exc.GateID, "criterion", exc.CriteriaID, "expires", exc.ExpiresAt)
	return exc.ID, nil
}

// Deactivate sets an exception inactive. It returns whether the id existed.
func (r *Registry) Deactivate(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		was := r.items[i].Active
		r.items[i].Active = false
		if err := r.save(ctx); err != nil {
			r.items[i].Active = was
			return false, err
		}
		logger.FromContext(ctx).Info("exception deactivated", "id", id)
		return true, nil
	}
	return false, nil
}

// FindInEffect returns the first exception currently suppressing the given
// (gate, criterion) pair, or nil. Expiry is checked lazily against the
// registry clock; nothing sweeps expired records.
func (r *Registry) FindInEffect(gateID, criteriaID string) *Exception {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	for i := range r.items {
		if r.items[i].InEffect(gateID, criteriaID, now) {
			exc := r.items[i]
			return &exc
		}
	}
	return nil
}

// List returns a copy of all exception records.
func (r *Registry) List() []Exception {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Exception, len(r.items))
	for i, e := range r.items {
		e.Conditions = append([]string(nil), e.Conditions...)
		out[i] = e
	}
	return out
}

// save persists the full exceptions array. Callers hold the lock.
func (r *Registry) save(ctx context.Context) error {
	items := r.items
	if items == nil {
		items = []Exception{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding exceptions: %w", err)
	}
	if err := r.docs.Write(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("persisting exceptions: %w", err)
	}
	return nil
}
