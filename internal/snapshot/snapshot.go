package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ordercart/internal/cart"
)

const fileName = "cart.json"

// FileStore keeps one cart as <baseDir>/<cartID>/cart.json.
type FileStore struct {
	baseDir string
	cartID  string
}

func NewFileStore(baseDir string, cartID string) *FileStore {
	return &FileStore{baseDir: baseDir, cartID: cartID}
}

func (f *FileStore) Path() string { return filepath.Join(f.baseDir, f.cartID, fileName) }

func (f *FileStore) Load() (*cart.Snapshot, error) {
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var s cart.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// Save writes to a temp file and renames it over the previous snapshot.
func (f *FileStore) Save(s cart.Snapshot) error {
	dir := filepath.Join(f.baseDir, f.cartID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	out, err := os.CreateTemp(dir, fileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	tmp := out.Name()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&s); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp, f.Path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
