package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
}

func TestLoadFromReadsFile(t *testing.T) {
	t.Setenv("DB_NAME", "")
	os.Unsetenv("DB_NAME")
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=mixdown\n"), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "mixdown", cfg.Database.Name)
}

func TestLoadFromUnreadablePathFails(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	assert.Error(t, err)
}

func TestIsMissingFile(t *testing.T) {
	_, err := os.Open(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, isMissingFile(err))
	assert.True(t, isMissingFile(fmt.Errorf("read config: %w", err)))
	assert.False(t, isMissingFile(os.ErrPermission))
	assert.False(t, isMissingFile(nil))
}
