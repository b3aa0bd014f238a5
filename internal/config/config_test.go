package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline:
  seed: 42
  workers: 2
output:
  format: png
  debug_overlay: true
`), 0o644))

	t.Setenv("AUGMENTER_PIPELINE_WORKERS", "8")
	t.Setenv("AUGMENTER_OUTPUT_DIR", "/tmp/aug")
	t.Setenv("AUGMENTER_UNRELATED_KEY", "ignored")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Pipeline.Seed)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, "bilinear", cfg.Pipeline.Interpolation)
	assert.Equal(t, "png", cfg.Output.Format)
	assert.True(t, cfg.Output.DebugOverlay)
	assert.Equal(t, "/tmp/aug", cfg.Output.Dir)
	assert.Equal(t, 90, cfg.Output.Quality)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"output": {"format": "gif"}}`), 0o644))

	_, err := LoadFromFile(path)
	assert.ErrorContains(t, err, "validation failed")

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"workers":       func(c *Config) { c.Pipeline.Workers = 0 },
		"interpolation": func(c *Config) { c.Pipeline.Interpolation = "lanczos" },
		"quality":       func(c *Config) { c.Output.Quality = 101 },
		"dir":           func(c *Config) { c.Output.Dir = "" },
		"level":         func(c *Config) { c.Log.Level = "trace" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveToFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Pipeline.Seed = 7

	for _, name := range []string{"nested/config.yaml", "config.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.SaveToFile(path))

		loaded, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(GetConfigPath()))
}
