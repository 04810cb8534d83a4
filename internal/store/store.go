// Package store provides the key-value repository behind the session cache.
package store

import (
	"errors"
	"fmt"

	"github.com/mcao2/truthlens/internal/config"
)

// ErrNotFound is returned by Get when a key has no value
var ErrNotFound = errors.New("store: key not found")

// Store is a small persistent key-value repository
type Store interface {
	// Get returns ErrNotFound when the key is absent
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	// Delete is a no-op for absent keys
	Delete(key string) error
	Close() error
}

// Open builds the backend selected by cfg.Storage.Backend
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.StoragePath())
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.StoragePath())
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
