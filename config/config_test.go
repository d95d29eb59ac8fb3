package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("result_buffer_cap: 128\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 128, cfg.ResultBufferCap)
	// Untouched fields keep their defaults.
	require.Equal(t, []string{"send_message", "wait_for_user"}, cfg.HiddenTools)
}

func TestLoadReplacesHiddenTools(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "hidden_tools:\n  - secret-tool\ndatabase_path: /tmp/x.db\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"secret-tool"}, cfg.HiddenTools)
	require.Equal(t, "/tmp/x.db", cfg.DatabasePath)
	require.Equal(t, 64, cfg.ResultBufferCap)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hidden_tools: {broken\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
