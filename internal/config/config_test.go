package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "Uncategorized", cfg.DefaultCategory)
	require.Equal(t, "1.0", cfg.DefaultVersion)
	require.Equal(t, 5*time.Second, cfg.LockTimeout)
	require.Empty(t, cfg.Editor)
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	data := "default_category: Imported\nlock_timeout: 30s\neditor: vim\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(data), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, "Imported", cfg.DefaultCategory)
	require.Equal(t, 30*time.Second, cfg.LockTimeout)
	require.Equal(t, "vim", cfg.Editor)
	// Keys the file leaves out keep their defaults.
	require.Equal(t, "1.0", cfg.DefaultVersion)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	data := "default_category: FromFile\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(data), 0o644))
	t.Setenv("PQHUB_DEFAULT_CATEGORY", "FromEnv")

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, "FromEnv", cfg.DefaultCategory)
}

func TestLoadMalformed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(":\nnot yaml: ["), 0o644))

	_, err := Load(root)
	require.Error(t, err)
}
