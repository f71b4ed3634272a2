package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Pyramid.TrailingNonPyramid)
	assert.Equal(t, 2, cfg.Pyramid.DisplayLevelFromLowest)
	assert.True(t, cfg.Tiles.DropFirstCorner)
	assert.False(t, cfg.Tiles.CleanCorners)
	assert.Equal(t, 768, cfg.TileEdge())
	assert.Equal(t, 25.0, cfg.Atlas.Resolution)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
tiles:
  sizeMultiplier: 4
  dropFirstCorner: false
atlas:
  resolution: 10
  apOffset: -0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Tiles.SizeMultiplier)
	assert.Equal(t, 128, cfg.Tiles.SizeUnit)
	assert.Equal(t, 512, cfg.TileEdge())
	assert.False(t, cfg.Tiles.DropFirstCorner)
	assert.Equal(t, 10.0, cfg.Atlas.Resolution)
	assert.Equal(t, -0.5, cfg.Atlas.APOffset)
	assert.Equal(t, 2, cfg.Pyramid.TrailingNonPyramid)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("atlas:\n  resolution: 0\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "atlas.resolution")
}

func TestLoadConfig_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiles: [unclosed"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing config file")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Tiles.CleanCorners = true
	cfg.Registration.Resolution = 25
	cfg.Registration.Channel = 2
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roisplitter.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative trailing", func(c *Config) { c.Pyramid.TrailingNonPyramid = -1 }},
		{"zero display level", func(c *Config) { c.Pyramid.DisplayLevelFromLowest = 0 }},
		{"negative tolerance", func(c *Config) { c.Pyramid.StepTolerance = -0.1 }},
		{"zero tile size", func(c *Config) { c.Tiles.SizeMultiplier = 0 }},
		{"negative focus level", func(c *Config) { c.Tiles.FocusLevel = -2 }},
		{"negative passes", func(c *Config) { c.Atlas.ClosingPasses = -1 }},
		{"negative registration resolution", func(c *Config) { c.Registration.Resolution = -25 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
