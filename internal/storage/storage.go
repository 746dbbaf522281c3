package storage

//go:generate $MOCKGEN -source=storage.go -destination=mocks/storage_mock.go

import "errors"

// Storage is a synchronous string key/value store.
type Storage interface {
	// Get returns the value stored under key and whether it exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// Static error definitions for better error handling.
var (
	// ErrEmptyKey indicates that a blank key was passed.
	ErrEmptyKey = errors.New("storage key cannot be empty")
	// ErrInvalidDocument indicates that the storage file is not a YAML mapping.
	ErrInvalidDocument = errors.New("storage file is not a YAML mapping")
)
