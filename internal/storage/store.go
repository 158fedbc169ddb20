// Package storage provides the document store backing quality-gate
// configuration, exceptions, execution history, and generated reports.
// Documents are opaque byte blobs addressed by a string key; every write
// replaces the previous value in full.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a document key has never been written.
var ErrNotFound = errors.New("document not found")

// DocumentStore reads and writes whole documents by key.
type DocumentStore interface {
	// Read returns the current contents of the document, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write replaces the document contents atomically.
	Write(ctx context.Context, key string, data []byte) error
}

// MemStore is an in-memory DocumentStore used in tests and as a fallback
// when no persistent backend is configured.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

// Read implements DocumentStore.
func (m *MemStore) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write implements DocumentStore.
func (m *MemStore) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.docs[key] = stored
	return nil
}
