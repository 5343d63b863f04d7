// Package storage provides the key-value persistence used by the engine:
// a durable YAML-backed store and a process-scoped in-memory store.
package storage

import (
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store loads and saves values by key. Values round-trip through YAML, so
// any value with yaml tags (or plain fields) can be stored.
type Store interface {
	// Load decodes the value stored under key into dst. It reports false
	// when the key is absent.
	Load(key string, dst any) (bool, error)
	// Save replaces the value stored under key.
	Save(key string, value any) error
}

// MemoryStore keeps values for the lifetime of the process only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Load implements Store.
func (store *MemoryStore) Load(key string, dst any) (bool, error) {
	store.mu.RLock()
	raw, ok := store.values[key]
	store.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := yaml.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save implements Store.
func (store *MemoryStore) Save(key string, value any) error {
	raw, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	store.mu.Lock()
	store.values[key] = raw
	store.mu.Unlock()
	return nil
}

// Delete removes key.
func (store *MemoryStore) Delete(key string) {
	store.mu.Lock()
	delete(store.values, key)
	store.mu.Unlock()
}
