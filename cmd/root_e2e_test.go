package cmd_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	// testBinaryName is the name of the test binary for E2E tests.
	testBinaryName = "authkeeper-test"
)

// TestMain builds the binary before running E2E tests.
func TestMain(m *testing.M) {
	// Build the binary for testing.
	//nolint:noctx // TestMain doesn't have access to context, and build is needed before tests run.
	buildCmd := exec.Command("go", "build", "-o", testBinaryName, "../.")
	if err := buildCmd.Run(); err != nil {
		os.Exit(1)
	}

	// Run tests.
	code := m.Run()

	// Cleanup.
	_ = os.Remove(testBinaryName)

	os.Exit(code)
}

// runBinary runs the test binary with the given arguments and optional stdin.
func runBinary(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	binaryPath, err := filepath.Abs(testBinaryName)
	require.NoError(t, err)

	cmd := exec.CommandContext(t.Context(), binaryPath, args...)
	cmd.Dir = t.TempDir()
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "AUTHKEEPER_LOG_LEVEL=error")

	output, err := cmd.CombinedOutput()

	return string(output), err
}

// writeConfig writes a config file pointing at a storage file in a temp directory.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()

	tempDir := t.TempDir()
	storagePath := filepath.Join(tempDir, "storage.yaml")
	configPath := filepath.Join(tempDir, "config.yaml")

	content := "storage_path: \"" + storagePath + "\"\nlog_level: \"error\"\n"
	err := os.WriteFile(configPath, []byte(content), 0o644) //nolint:gosec // It's a test file.
	require.NoError(t, err)

	return configPath, storagePath
}

// TestE2E_AuthLifecycle tests set, status and logout across separate processes.
func TestE2E_AuthLifecycle(t *testing.T) {
	t.Parallel()

	configPath, storagePath := writeConfig(t)

	output, err := runBinary(t, "", "-c", configPath, "auth", "set", "  abcdefghijkl  ")
	require.NoError(t, err, output)
	assert.Contains(t, output, "abcd...ijkl")

	content, err := os.ReadFile(storagePath)
	require.NoError(t, err)

	var stored map[string]any
	require.NoError(t, yaml.Unmarshal(content, &stored))
	assert.Equal(t, "abcdefghijkl", stored["token"])

	output, err = runBinary(t, "", "-c", configPath, "auth", "status")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Signed in with token abcd...ijkl")

	output, err = runBinary(t, "", "-c", configPath, "auth", "logout")
	require.NoError(t, err, output)

	output, err = runBinary(t, "", "-c", configPath, "auth", "status")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Not signed in")
}

// TestE2E_AuthSet_Stdin tests reading the token from stdin.
func TestE2E_AuthSet_Stdin(t *testing.T) {
	t.Parallel()

	configPath, _ := writeConfig(t)

	output, err := runBinary(t, "stdin-token-value\n", "-c", configPath, "auth", "set")
	require.NoError(t, err, output)

	output, err = runBinary(t, "", "-c", configPath, "auth", "status")
	require.NoError(t, err, output)
	assert.Contains(t, output, "Signed in")
}

// TestE2E_AuthSet_Sentinel tests that placeholder tokens are rejected.
func TestE2E_AuthSet_Sentinel(t *testing.T) {
	t.Parallel()

	configPath, storagePath := writeConfig(t)

	output, err := runBinary(t, "", "-c", configPath, "auth", "set", "undefined")
	require.Error(t, err, output)

	_, statErr := os.Stat(storagePath)
	if statErr == nil {
		content, readErr := os.ReadFile(storagePath)
		require.NoError(t, readErr)
		assert.NotContains(t, string(content), "undefined")
	}
}

// TestE2E_StorageFlagOverridesConfig tests the --storage flag.
func TestE2E_StorageFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	configPath, configStorage := writeConfig(t)
	flagStorage := filepath.Join(t.TempDir(), "flag-storage.yaml")

	output, err := runBinary(t, "", "-c", configPath, "--storage", flagStorage, "auth", "set", "flag-token")
	require.NoError(t, err, output)

	_, err = os.Stat(flagStorage)
	require.NoError(t, err)

	_, err = os.Stat(configStorage)
	assert.True(t, os.IsNotExist(err))
}

// TestE2E_InvalidConfig tests that invalid configuration stops the command.
func TestE2E_InvalidConfig(t *testing.T) {
	t.Parallel()

	configPath, _ := writeConfig(t)

	output, err := runBinary(t, "", "-c", configPath, "--log-level", "loud", "auth", "status")
	require.Error(t, err)
	assert.Contains(t, output, "Failed to parse flags")

	output, err = runBinary(t, "", "-c", filepath.Join(t.TempDir(), "missing.yaml"), "auth", "status")
	require.Error(t, err)
	assert.Contains(t, output, "Failed to load configuration")
}

// TestE2E_Version tests that version needs no configuration.
func TestE2E_Version(t *testing.T) {
	t.Parallel()

	output, err := runBinary(t, "", "-c", filepath.Join(t.TempDir(), "missing.yaml"), "version")
	require.NoError(t, err, output)
	assert.NotEmpty(t, strings.TrimSpace(output))
}
