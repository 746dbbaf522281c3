//nolint:nolintlint,revive // utils is a common and acceptable package name for utility functions.
package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRandomPause tests the RandomPause function.
func TestRandomPause(t *testing.T) {
	t.Parallel()

	// Test that RandomPause doesn't panic and returns within reasonable time.
	start := time.Now()
	RandomPause(150*time.Millisecond, 100*time.Millisecond)
	duration := time.Since(start)

	// Swapped bounds still pause for at least 100ms but not much more than 150ms.
	assert.GreaterOrEqual(t, duration, 100*time.Millisecond)
	assert.Less(t, duration, 250*time.Millisecond)

	start = time.Now()
	RandomPause(10*time.Millisecond, 10*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

// TestIsFileExist tests the IsFileExist function.
func TestIsFileExist(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()

	// Create a temporary file.
	tempFile, err := os.CreateTemp(tempDir, "test_file")
	require.NoError(t, err)

	tempFile.Close() //nolint:errcheck,gosec // Test cleanup, error is not critical.

	// Test existing file.
	exists, err := IsFileExist(tempFile.Name())
	require.NoError(t, err)
	assert.True(t, exists)

	// Directories are not files.
	exists, err = IsFileExist(tempDir)
	require.NoError(t, err)
	assert.False(t, exists)

	// Test non-existing file.
	exists, err = IsFileExist("/non/existing/file")
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestIsTextContentType tests the IsTextContentType function.
func TestIsTextContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		expected    bool
	}{
		{
			name:        "text/plain",
			contentType: "text/plain",
			expected:    true,
		},
		{
			name:        "text/html with charset",
			contentType: "text/html; charset=utf-8",
			expected:    true,
		},
		{
			name:        "application/json",
			contentType: "application/json",
			expected:    true,
		},
		{
			name:        "GraphQL response",
			contentType: "application/graphql-response+json; charset=utf-8",
			expected:    true,
		},
		{
			name:        "form post",
			contentType: "application/x-www-form-urlencoded",
			expected:    true,
		},
		{
			name:        "image/jpeg",
			contentType: "image/jpeg",
			expected:    false,
		},
		{
			name:        "text with invalid charset",
			contentType: "text/plain; charset=invalid",
			expected:    false,
		},
		{
			name:        "invalid content type",
			contentType: "invalid/type",
			expected:    false,
		},
		{
			name:        "empty content type",
			contentType: "",
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := IsTextContentType(tt.contentType)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestOrigin tests the Origin function.
func TestOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "path and query are dropped",
			input:    "https://app.example.com/login?next=/dashboard",
			expected: "https://app.example.com",
		},
		{
			name:     "default https port is dropped",
			input:    "https://app.example.com:443/",
			expected: "https://app.example.com",
		},
		{
			name:     "custom port is kept",
			input:    "http://localhost:5173/login",
			expected: "http://localhost:5173",
		},
		{
			name:     "case is normalized",
			input:    "HTTPS://App.Example.COM",
			expected: "https://app.example.com",
		},
		{
			name:     "IPv6 literal",
			input:    "http://[::1]:8080/",
			expected: "http://[::1]:8080",
		},
		{
			name:     "relative URL has no origin",
			input:    "/login",
			expected: "",
		},
		{
			name:     "about:blank has no origin",
			input:    "about:blank",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Origin(tt.input))
		})
	}
}

// TestIsSameOrigin tests the IsSameOrigin function.
func TestIsSameOrigin(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSameOrigin("https://app.example.com/login", "https://app.example.com:443/dashboard"))
	assert.False(t, IsSameOrigin("https://app.example.com", "http://app.example.com"))
	assert.False(t, IsSameOrigin("https://app.example.com", "https://evil.example.com"))
	assert.False(t, IsSameOrigin("/login", "/login"))
}
