package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/constants"
)

func TestGlobalConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := GlobalConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, constants.AppHome), dir)
}

func TestGlobalConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := GlobalConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".taskflow", "config.yaml"), path)
}

func TestProjectConfigPath(t *testing.T) {
	assert.Equal(t, constants.AppHome, ProjectConfigDir())
	assert.Equal(t, filepath.Join(".taskflow", "config.yaml"), ProjectConfigPath())
}

func TestConfig_TemplatesDir_Default(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := DefaultConfig().TemplatesDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".taskflow", "templates"), dir)
}
