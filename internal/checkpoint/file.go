package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileKV keeps each checkpoint in its own JSON file under a base directory.
// Writes go through a temp file and rename so a crash mid-write never leaves
// a truncated checkpoint behind.
type FileKV struct {
	dir string
}

// NewFileKV creates the base directory if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// Get implements KV.
func (f *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	raw, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint file: %w", err)
	}
	return raw, nil
}

// Put implements KV.
func (f *FileKV) Put(_ context.Context, key string, value []byte) error {
	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace checkpoint file: %w", err)
	}
	return nil
}

// path maps a key to a filename, flattening separators so a crawler ID can
// never escape the base directory.
func (f *FileKV) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(f.dir, name+".json")
}
