package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultTokenStatePath, cfg.TokenStatePath)
	require.True(t, *cfg.PrettyJSON)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mockctl.yaml")
	content := "baseURL: http://api.local:9090\ntimeout: 5s\nprettyJSON: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://api.local:9090", cfg.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.False(t, *cfg.PrettyJSON)
	require.Equal(t, DefaultTokenStatePath, cfg.TokenStatePath)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baseURL: [unterminated"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}
