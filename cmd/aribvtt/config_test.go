package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sid": 4, "palette": 2, "watch_dir": "/segments"}`), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.SID)
	assert.Equal(t, 4, *cfg.SID)
	assert.Equal(t, 2, cfg.Palette)
	assert.Equal(t, "/segments", cfg.WatchDir)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Nil(t, cfg.SID)
	assert.Equal(t, 0, cfg.Palette)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
