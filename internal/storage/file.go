package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/authkeeper/internal/constants"
)

// updatedAtSuffix is appended to a key to record when it was last written.
const (
	updatedAtSuffix = "_updated_at"
	nullTag         = "!!null"
)

// Timestamper is implemented by storages that remember when a key was written.
type Timestamper interface {
	// UpdatedAt returns the moment key was last set.
	UpdatedAt(key string) (time.Time, bool, error)
}

// FileStorage keeps values in a YAML file.
// Edits go through the yaml.Node tree so unrelated keys, their order
// and comments are preserved.
type FileStorage struct {
	// path is the location of the YAML file.
	path string
	// now returns the current time, replaced in tests.
	now func() time.Time
	// mu serializes read-modify-write cycles within the process.
	mu sync.Mutex
}

// FileStorageOption configures a FileStorage.
type FileStorageOption func(*FileStorage)

// WithClock overrides the time source used for update timestamps.
func WithClock(now func() time.Time) FileStorageOption {
	return func(s *FileStorage) {
		if now != nil {
			s.now = now
		}
	}
}

// NewFileStorage creates a FileStorage backed by the file at path.
// The file does not have to exist yet.
func NewFileStorage(path string, options ...FileStorageOption) *FileStorage {
	s := &FileStorage{
		path: path,
		now:  time.Now,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Path returns the location of the backing file.
func (s *FileStorage) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *FileStorage) Get(key string) (string, bool, error) {
	if strings.TrimSpace(key) == "" {
		return "", false, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, mapNode, err := s.load()
	if err != nil {
		return "", false, err
	}

	valueNode := findValueNode(mapNode, key)
	if !isStringValue(valueNode) {
		return "", false, nil
	}

	return valueNode.Value, true, nil
}

// isStringValue reports whether node holds a non-null scalar.
// Nulls, sequences and mappings read as missing.
func isStringValue(node *yaml.Node) bool {
	return node != nil && node.Kind == yaml.ScalarNode && node.ShortTag() != nullTag
}

// UpdatedAt returns the moment key was last set.
func (s *FileStorage) UpdatedAt(key string) (time.Time, bool, error) {
	raw, ok, err := s.Get(key + updatedAtSuffix)
	if err != nil || !ok {
		return time.Time{}, false, err
	}

	updatedAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse update time of %q: %w", key, err)
	}

	return updatedAt, true, nil
}

// Set stores value under key and records the update time.
func (s *FileStorage) Set(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	document, mapNode, err := s.load()
	if err != nil {
		return err
	}

	setValue(mapNode, key, value)
	setValue(mapNode, key+updatedAtSuffix, s.now().UTC().Format(time.RFC3339))

	return s.save(document)
}

// Remove deletes key and its update time.
func (s *FileStorage) Remove(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	document, mapNode, err := s.load()
	if err != nil {
		return err
	}

	removedValue := removeKey(mapNode, key)
	removedStamp := removeKey(mapNode, key+updatedAtSuffix)

	if !removedValue && !removedStamp {
		return nil
	}

	return s.save(document)
}

// load reads the file and returns its document node and root mapping node.
// A missing or empty file yields an empty mapping.
func (s *FileStorage) load() (*yaml.Node, *yaml.Node, error) {
	content, err := os.ReadFile(filepath.Clean(s.path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newDocument()
		}

		return nil, nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	var document yaml.Node
	if err = yaml.Unmarshal(content, &document); err != nil {
		return nil, nil, fmt.Errorf("failed to parse storage file: %w", err)
	}

	// The root node is a document node, content[0] is the actual map.
	if len(document.Content) == 0 {
		return newDocument()
	}

	mapNode := document.Content[0]
	if mapNode.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidDocument, s.path)
	}

	return &document, mapNode, nil
}

// save writes the mapping through a temporary file so readers never see a partial document.
func (s *FileStorage) save(document *yaml.Node) error {
	content, err := yaml.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal storage file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, constants.DefaultFolderPermissions); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary storage file: %w", err)
	}

	tempPath := tempFile.Name()

	defer os.Remove(tempPath) //nolint:errcheck // The file is gone after a successful rename.

	if _, err = tempFile.Write(content); err != nil {
		tempFile.Close() //nolint:errcheck,gosec // The write error is the one worth reporting.

		return fmt.Errorf("failed to write storage file: %w", err)
	}

	if err = tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close storage file: %w", err)
	}

	if err = os.Chmod(tempPath, constants.PrivateFilePermissions); err != nil {
		return fmt.Errorf("failed to set storage file permissions: %w", err)
	}

	if err = os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("failed to replace storage file: %w", err)
	}

	return nil
}

func newDocument() (*yaml.Node, *yaml.Node, error) {
	mapNode := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapNode}}, mapNode, nil
}

// findValueNode returns the value node for key, or nil.
// Key-value pairs are stored as alternating nodes.
func findValueNode(mapNode *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		if mapNode.Content[i].Value == key {
			return mapNode.Content[i+1]
		}
	}

	return nil
}

// setValue updates key in place, keeping its position, or appends it.
func setValue(mapNode *yaml.Node, key, value string) {
	if valueNode := findValueNode(mapNode, key); valueNode != nil {
		valueNode.Kind = yaml.ScalarNode
		valueNode.Tag = "!!str"
		valueNode.Value = value
		valueNode.Content = nil
		valueNode.Style = yaml.DoubleQuotedStyle

		return
	}

	mapNode.Content = append(mapNode.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: yaml.DoubleQuotedStyle},
	)
}

// removeKey drops key and its value, reporting whether it was present.
func removeKey(mapNode *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		if mapNode.Content[i].Value == key {
			mapNode.Content = append(mapNode.Content[:i], mapNode.Content[i+2:]...)

			return true
		}
	}

	return false
}
