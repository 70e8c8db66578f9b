package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmptyPathIsNop(t *testing.T) {
	logger, err := New("", true)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	logger.Info("dropped")
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cappu.log")

	logger, err := New(path, false)
	require.NoError(t, err)
	logger.Info("initialized")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"initialized"`)
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cappu.log")

	quiet, err := New(path, false)
	require.NoError(t, err)
	quiet.Debug("hidden")
	_ = quiet.Sync()

	loud, err := New(path, true)
	require.NoError(t, err)
	loud.Debug("shown")
	_ = loud.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}
