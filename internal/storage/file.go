package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists each document as a file under a root directory.
// Writes go through a temp file plus rename so a crash mid-write never
// leaves a truncated document behind.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root directory backing this store.
func (f *FileStore) Dir() string {
	return f.dir
}

// Read implements DocumentStore.
func (f *FileStore) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key)) // #nosec G304 -- path is derived from a sanitized key under the store root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading document %q: %w", key, err)
	}
	return data, nil
}

// Write implements DocumentStore.
func (f *FileStore) Write(_ context.Context, key string, data []byte) error {
	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %q: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing document %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file for %q: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing document %q: %w", key, err)
	}
	return nil
}

// path maps a document key to a file path inside the store root.
// Path separators in keys are flattened so a key can never escape the root.
func (f *FileStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(f.dir, safe)
}
