package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  port: 9090
  read_timeout: 10s
  write_timeout: 60s

project_id: ${TEST_PROJECT_ID}
default_region: us-east5
google_region: us-central1
default_model: sonnet
auto_truncate: false
reserve_output_tokens: 512

model_aliases:
  fast: claude-haiku-4-5@20251001

fallback_chains:
  claude-opus-4-1@20250805:
    - claude-sonnet-4-5@20250929
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	t.Setenv("TEST_PROJECT_ID", "my-gcp-project")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)

	assert.Equal(t, "my-gcp-project", cfg.ProjectID)
	assert.Equal(t, "us-east5", cfg.DefaultRegion)
	assert.False(t, cfg.AutoTruncate)
	assert.Equal(t, 512, cfg.ReserveOutputTokens)
	assert.Equal(t, "claude-haiku-4-5@20251001", cfg.ModelAliases["fast"])
	assert.Equal(t, []string{"claude-sonnet-4-5@20250929"}, cfg.FallbackChains["claude-opus-4-1@20250805"])
}

func TestLoadEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
project_id: my-project
server:
  port: 8080
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	t.Setenv("VERTEXPROXY_SERVER_PORT", "3000")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("project_id: p\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.AutoTruncate)
	assert.Equal(t, 1024, cfg.ReserveOutputTokens)
	assert.Equal(t, int64(10*1024*1024), cfg.Log.MaxSizeBytes)
}

func TestLoad_MissingProjectID(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 1\n"), 0644))

	_, err := Load(configPath)
	assert.ErrorIs(t, err, ErrMissingProjectID)
}
