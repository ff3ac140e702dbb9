package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// unsetForTest removes key for the duration of the test.
func unsetForTest(t *testing.T, key string) {
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadEnvAndLogger_DebugLevelFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	unsetForTest(t, "LOG_DEBUG")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_DEBUG=true\n"), 0o600))

	LoadEnvAndLogger(".env")

	assert.True(t, Logger.Core().Enabled(zapcore.DebugLevel))
}

func TestLoadEnvAndLogger_ProcessEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LOG_DEBUG", "false")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_DEBUG=true\n"), 0o600))

	LoadEnvAndLogger(".env")

	assert.False(t, Logger.Core().Enabled(zapcore.DebugLevel))
}

func TestLoadEnvAndLogger_MissingFileStillBuildsLogger(t *testing.T) {
	t.Chdir(t.TempDir())
	unsetForTest(t, "LOG_DEBUG")

	require.NotPanics(t, func() { LoadEnvAndLogger(".env") })
	require.NotNil(t, Logger)
	assert.False(t, Logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Logger.Core().Enabled(zapcore.InfoLevel))
}
