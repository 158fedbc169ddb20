package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/irahardianto/shipgate/internal/platform/logger"
	"gopkg.in/yaml.v3"
)

// StorageBackend selects the document-store implementation.
type StorageBackend string

const (
	BackendFile   StorageBackend = "file"
	BackendSQLite StorageBackend = "sqlite"
)

// GlobalConfig holds user-level settings that persist across projects:
// where quality-gate documents live and which backend holds them.
type GlobalConfig struct {
	Storage StorageConfig `yaml:"storage"`
	Output  OutputConfig  `yaml:"output"`

	// OutputColor and OutputVerbose are derived from Output.
	OutputColor   bool `yaml:"-"`
	OutputVerbose bool `yaml:"-"`
}

// StorageConfig selects and locates the document store.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend"`
	Dir     string         `yaml:"dir"`
}

// OutputConfig holds output-related user preferences.
type OutputConfig struct {
	Color   *bool `yaml:"color"`
	Verbose *bool `yaml:"verbose"`
}

// Loader handles loading configuration from the file system.
type Loader struct {
	fs     FileSystem
	getenv func(string) string
}

// NewLoader creates a new Loader with the given file system and
// environment lookup function.
func NewLoader(fs FileSystem, getenv func(string) string) *Loader {
	return &Loader{fs: fs, getenv: getenv}
}

// LoadGlobalConfig reads user-level configuration from
// ~/.config/shipgate/config.yaml. A missing file yields defaults, not an
// error. Environment variables override file values.
func (l *Loader) LoadGlobalConfig(ctx context.Context) (*GlobalConfig, error) {
	home, err := l.fs.UserHomeDir()
	if err != nil {
		cfg := defaultGlobalConfig("")
		applyEnvOverrides(cfg, l.getenv, logger.FromContext(ctx))
		return cfg, nil
	}
	path := filepath.Join(home, ".config", "shipgate", "config.yaml")
	return l.LoadGlobalConfigFrom(ctx, path)
}

// LoadGlobalConfigFrom reads user-level configuration from a specific path.
func (l *Loader) LoadGlobalConfigFrom(ctx context.Context, path string) (*GlobalConfig, error) {
	log := logger.FromContext(ctx)
	log.Debug("loading global config", "path", path)

	path = filepath.Clean(path)
	cfg := defaultGlobalConfig(filepath.Dir(path))

	data, err := l.fs.ReadFile(path)
	if err != nil {
		if l.fs.IsNotExist(err) {
			applyEnvOverrides(cfg, l.getenv, log)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.Output.Color != nil {
		cfg.OutputColor = *cfg.Output.Color
	}
	if cfg.Output.Verbose != nil {
		cfg.OutputVerbose = *cfg.Output.Verbose
	}

	applyEnvOverrides(cfg, l.getenv, log)

	switch cfg.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return nil, fmt.Errorf("unknown storage backend %q (valid: file, sqlite)", cfg.Storage.Backend)
	}
	return cfg, nil
}

func defaultGlobalConfig(configDir string) *GlobalConfig {
	dir := "data"
	if configDir != "" {
		dir = filepath.Join(configDir, "data")
	}
	return &GlobalConfig{
		Storage: StorageConfig{
			Backend: BackendFile,
			Dir:     dir,
		},
		OutputColor: true,
	}
}

func applyEnvOverrides(cfg *GlobalConfig, getenv func(string) string, log *slog.Logger) {
	if v := getenv("SHIPGATE_STORAGE_BACKEND"); v != "" {
		log.Debug("storage backend overridden from environment", "backend", v)
		cfg.Storage.Backend = StorageBackend(v)
	}
	if v := getenv("SHIPGATE_DATA_DIR"); v != "" {
		log.Debug("data directory overridden from environment", "dir", v)
		cfg.Storage.Dir = v
	}
}
