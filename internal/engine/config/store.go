package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/irahardianto/shipgate/internal/platform/logger"
	"github.com/irahardianto/shipgate/internal/storage"
)

// DocumentKey is the document-store key holding the configuration.
const DocumentKey = "quality-gates-config.json"

// Store loads and saves the Configuration document.
type Store struct {
	docs  storage.DocumentStore
	clock func() time.Time
}

// NewStore creates a configuration store on top of the document store.
func NewStore(docs storage.DocumentStore) *Store {
	return &Store{docs: docs, clock: time.Now}
}

// NewStoreWithClock creates a Store with an injected clock for tests.
func NewStoreWithClock(docs storage.DocumentStore, clock func() time.Time) *Store {
	return &Store{docs: docs, clock: clock}
}

// Load reads the persisted configuration. When the document has never been
// written, the hard-coded defaults are seeded and returned; a genuinely
// broken store or a malformed document is an error.
func (s *Store) Load(ctx context.Context) (*Configuration, error) {
	log := logger.FromContext(ctx)

	data, err := s.docs.Read(ctx, DocumentKey)
	if errors.Is(err, storage.ErrNotFound) {
		log.Info("no persisted configuration, seeding defaults")
		cfg := Default()
		if err := s.Save(ctx, cfg); err != nil {
			return nil, fmt.Errorf("seeding default configuration: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration document: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration document: %w", err)
	}
	log.Debug("configuration loaded", "gates", len(cfg.Gates), "version", cfg.Version)
	return &cfg, nil
}

// Save stamps LastUpdated and persists the configuration in full.
func (s *Store) Save(ctx context.Context, cfg *Configuration) error {
	cfg.LastUpdated = s.clock().UTC()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := s.docs.Write(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("persisting configuration: %w", err)
	}
	return nil
}
