package store

import (
	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local store, used for demo mode and tests
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an empty store whose entries never expire
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns a copy of the stored value
func (s *MemoryStore) Get(key string) ([]byte, error) {
	val, found := s.cache.Get(key)
	if !found {
		return nil, ErrNotFound
	}
	data := val.([]byte)
	return append([]byte(nil), data...), nil
}

// Set stores a copy of value
func (s *MemoryStore) Set(key string, value []byte) error {
	s.cache.Set(key, append([]byte(nil), value...), gocache.NoExpiration)
	return nil
}

// Delete removes key
func (s *MemoryStore) Delete(key string) error {
	s.cache.Delete(key)
	return nil
}

// Close drops all entries
func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
