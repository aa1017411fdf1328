package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentforge/eventpipe/pkg/eventpipe/config"
)

func TestTypedAccessors(t *testing.T) {
	cfg := config.New(map[string]any{
		"name":    "pipeline",
		"count":   5,
		"ratio":   2.0,
		"frac":    2.5,
		"enabled": true,
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "pipeline", cfg.String("name", "x"))
		assert.Equal(t, "x", cfg.String("missing", "x"))
		assert.Equal(t, "x", cfg.String("count", "x"))
	})

	t.Run("int", func(t *testing.T) {
		assert.Equal(t, 5, cfg.Int("count", 0))
		assert.Equal(t, 2, cfg.Int("ratio", 0), "whole floats convert")
		assert.Equal(t, 9, cfg.Int("frac", 9), "fractional floats do not")
		assert.Equal(t, 9, cfg.Int("missing", 9))
	})

	t.Run("bool", func(t *testing.T) {
		assert.True(t, cfg.Bool("enabled", false))
		assert.False(t, cfg.Bool("missing", false))
	})
}

func TestDuration(t *testing.T) {
	cfg := config.New(map[string]any{
		"as_string":  "150ms",
		"as_int":     2,
		"as_float":   0.5,
		"as_native":  3 * time.Second,
		"bad_string": "nonsense",
	})

	assert.Equal(t, 150*time.Millisecond, cfg.Duration("as_string", time.Second))
	assert.Equal(t, 2*time.Second, cfg.Duration("as_int", 0))
	assert.Equal(t, 500*time.Millisecond, cfg.Duration("as_float", 0))
	assert.Equal(t, 3*time.Second, cfg.Duration("as_native", 0))
	assert.Equal(t, time.Minute, cfg.Duration("bad_string", time.Minute))
	assert.Equal(t, time.Minute, cfg.Duration("missing", time.Minute))
}

func TestSection(t *testing.T) {
	cfg := config.New(map[string]any{
		"pipeline": map[string]any{
			"batch_size": 25,
		},
		"flat": "value",
	})

	assert.Equal(t, 25, cfg.Section("pipeline").Int("batch_size", 0))
	assert.Equal(t, 0, cfg.Section("missing").Int("batch_size", 0))
	assert.Equal(t, 0, cfg.Section("flat").Int("batch_size", 0))
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
consumers: 4
retry_base_delay: 50ms
pipeline:
  batch_size: 10
`))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Int("consumers", 0))
	assert.Equal(t, 50*time.Millisecond, cfg.Duration("retry_base_delay", 0))
	assert.Equal(t, 10, cfg.Section("pipeline").Int("batch_size", 0))
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"consumers": 8, "enabled": true}`))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Int("consumers", 0))
	assert.True(t, cfg.Bool("enabled", false))
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "engine.yaml")
		require.NoError(t, os.WriteFile(path, []byte("queue_capacity: 500\n"), 0o644))

		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 500, cfg.Int("queue_capacity", 0))
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "engine.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"queue_capacity": 600}`), 0o644))

		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 600, cfg.Int("queue_capacity", 0))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unrecognized extension", func(t *testing.T) {
		path := filepath.Join(dir, "engine.toml")
		require.NoError(t, os.WriteFile(path, []byte("queue_capacity = 500"), 0o644))

		_, err := config.FromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unrecognized extension")
	})
}
