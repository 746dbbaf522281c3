package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/authkeeper/internal/constants"
)

// TestMemoryStorage tests the MemoryStorage lifecycle.
func TestMemoryStorage(t *testing.T) {
	t.Parallel()

	s := NewMemoryStorage()

	_, ok, err := s.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("token", "abc"))

	value, ok, err := s.Get("token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	require.NoError(t, s.Remove("token"))
	require.NoError(t, s.Remove("token"))

	_, ok, err = s.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestStorage_EmptyKey tests that both implementations reject blank keys.
func TestStorage_EmptyKey(t *testing.T) {
	t.Parallel()

	implementations := map[string]Storage{
		"memory": NewMemoryStorage(),
		"file":   NewFileStorage(filepath.Join(t.TempDir(), "storage.yaml")),
	}

	for name, s := range implementations {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, _, err := s.Get(" ")
			require.ErrorIs(t, err, ErrEmptyKey)
			require.ErrorIs(t, s.Set("", "x"), ErrEmptyKey)
			require.ErrorIs(t, s.Remove(""), ErrEmptyKey)
		})
	}
}

// TestFileStorage_MissingFile tests reads and removals against a file that does not exist.
func TestFileStorage_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "storage.yaml")
	s := NewFileStorage(path)

	_, ok, err := s.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remove("token"))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "Remove must not create the file")
}

// TestFileStorage_RoundTrip tests that a value written by one instance is read by another.
func TestFileStorage_RoundTrip(t *testing.T) {
	t.Parallel()

	var (
		path    = filepath.Join(t.TempDir(), "nested", "storage.yaml")
		fixedAt = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	)

	writer := NewFileStorage(path, WithClock(func() time.Time { return fixedAt }))
	require.NoError(t, writer.Set("token", "abc123"))

	reader := NewFileStorage(path)

	value, ok, err := reader.Get("token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", value)

	updatedAt, ok, err := reader.UpdatedAt("token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, fixedAt.Equal(updatedAt))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, constants.PrivateFilePermissions, info.Mode().Perm())

	require.NoError(t, reader.Remove("token"))

	_, ok, err = writer.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = writer.UpdatedAt("token")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestFileStorage_PreservesForeignKeys tests that unrelated keys and comments survive edits.
func TestFileStorage_PreservesForeignKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "storage.yaml")
	original := "# keep me\ntheme: dark\ntoken: old\nlanguage: en\n"
	require.NoError(t, os.WriteFile(path, []byte(original), constants.DefaultFilePermissions))

	s := NewFileStorage(path)
	require.NoError(t, s.Set("token", "new"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "# keep me")
	assert.Contains(t, text, "theme: dark")
	assert.Contains(t, text, "language: en")
	assert.Contains(t, text, `token: "new"`)
	assert.Less(t, strings.Index(text, "theme"), strings.Index(text, "token"))
	assert.Less(t, strings.Index(text, "token"), strings.Index(text, "language"))

	require.NoError(t, s.Remove("token"))

	value, ok, err := s.Get("theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", value)

	_, ok, err = s.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestFileStorage_InvalidDocument tests that a non-mapping document is rejected.
func TestFileStorage_InvalidDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		target  error
	}{
		{
			name:    "sequence root",
			content: "- a\n- b\n",
			target:  ErrInvalidDocument,
		},
		{
			name:    "broken yaml",
			content: "token: [unclosed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "storage.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), constants.DefaultFilePermissions))

			_, _, err := NewFileStorage(path).Get("token")
			require.Error(t, err)

			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

// TestFileStorage_EmptyFile tests that an empty file behaves like a missing one.
func TestFileStorage_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "storage.yaml")
	require.NoError(t, os.WriteFile(path, nil, constants.DefaultFilePermissions))

	s := NewFileStorage(path)

	_, ok, err := s.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("token", "abc"))

	value, _, err := s.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}

// TestFileStorage_NullValue tests that values which are not plain strings read as missing.
func TestFileStorage_NullValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		expected string
		found    bool
	}{
		{name: "tilde null", content: "token: ~\n"},
		{name: "explicit null", content: "token: null\n"},
		{name: "empty value", content: "token:\n"},
		{name: "sequence value", content: "token:\n  - a\n  - b\n"},
		{name: "mapping value", content: "token:\n  nested: x\n"},
		{name: "quoted tilde is a string", content: "token: \"~\"\n", expected: "~", found: true},
		{name: "plain scalar", content: "token: abc\n", expected: "abc", found: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "storage.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), constants.DefaultFilePermissions))

			s := NewFileStorage(path)

			value, ok, err := s.Get("token")
			require.NoError(t, err)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, value)

			require.NoError(t, s.Set("token", "replaced"))

			value, ok, err = s.Get("token")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "replaced", value)
		})
	}
}
