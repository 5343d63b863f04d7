package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// StateFileName is the default file name of the durable state store.
const StateFileName = "state.yaml"

// FileStore persists values in a single YAML document, one top-level key per
// value. Writes replace the file atomically.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]*yaml.Node
}

// OpenFileStore reads the store at path. A missing file yields an empty
// store. A corrupt file yields an empty, still usable store and an error.
func OpenFileStore(path string) (*FileStore, error) {
	store := &FileStore{
		path:   path,
		values: make(map[string]*yaml.Node),
	}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return store, fmt.Errorf("read state file: %w", err)
	}

	var fileData map[string]*yaml.Node
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return store, fmt.Errorf("parse state yaml: %w", err)
	}
	for key, node := range fileData {
		if node != nil {
			store.values[key] = node
		}
	}
	return store, nil
}

// Path returns the backing file path.
func (store *FileStore) Path() string {
	return store.path
}

// Load implements Store.
func (store *FileStore) Load(key string, dst any) (bool, error) {
	store.mu.Lock()
	node, ok := store.values[key]
	store.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := node.Decode(dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save implements Store. The in-memory value is updated even when writing
// the file fails, so the session keeps the latest value.
func (store *FileStore) Save(key string, value any) error {
	node := &yaml.Node{}
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	store.values[key] = node
	return store.writeLocked()
}

func (store *FileStore) writeLocked() error {
	serialized, err := yaml.Marshal(store.values)
	if err != nil {
		return fmt.Errorf("marshal state yaml: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	temp, err := os.CreateTemp(filepath.Dir(store.path), ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(serialized); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("write state file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tempPath, store.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
