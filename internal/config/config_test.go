package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, int64(8192), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "Barcelona", cfg.Generation.DefaultLocation)
	assert.Equal(t, 500, cfg.Generation.CorpusSampleCap)
	assert.Equal(t, 50, cfg.Generation.PromptExclusionCap)
	assert.Equal(t, 120, cfg.Generation.ProviderTimeoutSecs)
	assert.InDelta(t, 10.0, cfg.Generation.ProviderRPM, 0.001)
	assert.Equal(t, 4, cfg.Generation.PersistConcurrency)
	assert.False(t, cfg.Generation.StrictValidation)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	yaml := `
store:
  driver: sqlite
  database_url: dev.db
log:
  level: debug
  format: console
server:
  port: 9090
generation:
  default_location: Girona
  strict_validation: true
  prompt_exclusion_cap: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "dev.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Girona", cfg.Generation.DefaultLocation)
	assert.True(t, cfg.Generation.StrictValidation)
	assert.Equal(t, 25, cfg.Generation.PromptExclusionCap)

	// Untouched keys keep their defaults.
	assert.Equal(t, 500, cfg.Generation.CorpusSampleCap)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	t.Setenv("LEADGEN_STORE_DRIVER", "sqlite")
	t.Setenv("LEADGEN_ANTHROPIC_KEY", "sk-ant-test")
	t.Setenv("LEADGEN_GENERATION_DEFAULT_LOCATION", "Tarragona")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
	assert.Equal(t, "Tarragona", cfg.Generation.DefaultLocation)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	assert.Error(t, InitLogger(LogConfig{Level: "not-a-level", Format: "json"}))
}
