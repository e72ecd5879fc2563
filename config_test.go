package compass

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfigKeepsDefaults(t *testing.T) {
	cfg, err := DecodeConfig([]byte(`
model_path = "models/other.glb"
mobile = true

[particles]
Count = 100

[window]
title = "demo"
`))
	require.NoError(t, err)

	assert.Equal(t, "models/other.glb", cfg.ModelPath)
	assert.True(t, cfg.Mobile)
	assert.Equal(t, 100, cfg.Particles.Count)
	assert.Equal(t, "demo", cfg.Window.Title)

	def := DefaultConfig()
	assert.Equal(t, def.EnvironmentPath, cfg.EnvironmentPath)
	assert.Equal(t, def.Particles.MaxRadius, cfg.Particles.MaxRadius)
	assert.Equal(t, uint32(0xffaa44), cfg.Scene.LightColor)
	assert.Equal(t, float32(45), cfg.Camera.Fov)
}

func TestDecodeConfigRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeConfig([]byte(`modle_path = "x"`))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compass.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_pixel_ratio = 1.5\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.MaxPixelRatio)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
