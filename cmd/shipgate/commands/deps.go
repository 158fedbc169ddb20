package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/irahardianto/shipgate/internal/engine/config"
	"github.com/irahardianto/shipgate/internal/engine/pipeline"
	"github.com/irahardianto/shipgate/internal/storage"
)

// openStore builds the document store selected by the global config.
// The returned closer releases backend resources and must be called
// once the command is done.
func openStore(cfg *config.GlobalConfig) (storage.DocumentStore, func() error, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile:
		fs, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() error { return nil }, nil
	case config.BackendSQLite:
		db, err := storage.NewSQLiteStore(filepath.Join(cfg.Storage.Dir, "shipgate.db"))
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newOrchestrator wires real infrastructure and loads all persisted
// state. This is a composition root — it instantiates production
// dependencies.
func newOrchestrator(ctx context.Context) (*pipeline.Orchestrator, *config.GlobalConfig, func() error, error) {
	loader := config.NewLoader(&config.RealFileSystem{}, os.Getenv)
	globalCfg, err := loader.LoadGlobalConfig(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading global config: %w", err)
	}

	docs, closeStore, err := openStore(globalCfg)
	if err != nil {
		return nil, nil, nil, err
	}

	orch := pipeline.New(docs)
	if err := orch.Initialize(ctx); err != nil {
		_ = closeStore()
		return nil, nil, nil, err
	}
	return orch, globalCfg, closeStore, nil
}
