package storage

import (
	"strings"
	"sync"
)

// MemoryStorage keeps values in a map; nothing survives the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *MemoryStorage) Get(key string) (string, bool, error) {
	if strings.TrimSpace(key) == "" {
		return "", false, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]

	return value, ok, nil
}

// Set stores value under key.
func (s *MemoryStorage) Set(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	return nil
}

// Remove deletes key.
func (s *MemoryStorage) Remove(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}
