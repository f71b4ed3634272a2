// Package config provides configuration loading and management for roisplitter.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Pyramid structure inference parameters
	Pyramid struct {
		// TrailingNonPyramid is the number of images at the end of the series
		// list that are not part of any slice pyramid (label and overview images)
		TrailingNonPyramid int `yaml:"trailingNonPyramid"`

		// DisplayLevelFromLowest selects the level the ROI is drawn on,
		// counted from the lowest resolution (1 = lowest)
		DisplayLevelFromLowest int `yaml:"displayLevelFromLowest"`

		// StepTolerance is the accepted relative deviation of each level
		// ratio from the slice's binning step
		StepTolerance float64 `yaml:"stepTolerance"`

		// Strict rejects files whose pyramids deviate beyond StepTolerance
		Strict bool `yaml:"strict"`
	} `yaml:"pyramid"`

	// Tile generation parameters
	Tiles struct {
		// SizeMultiplier times SizeUnit is the tile edge at full resolution
		SizeMultiplier int `yaml:"sizeMultiplier"`

		// SizeUnit is the full-resolution pixel count of one size step
		SizeUnit int `yaml:"sizeUnit"`

		// DropFirstCorner discards the first corner of the sorted grid
		DropFirstCorner bool `yaml:"dropFirstCorner"`

		// CleanCorners keeps only tiles whose four corners lie inside the ROI
		CleanCorners bool `yaml:"cleanCorners"`

		// FocusLevel is the pyramid level (1 = highest) cropped for a focus
		// check after tessellation; 0 disables the check
		FocusLevel int `yaml:"focusLevel"`
	} `yaml:"tiles"`

	// Atlas projection parameters
	Atlas struct {
		// Resolution is the atlas voxel size in micrometers
		Resolution float64 `yaml:"resolution"`

		// APOffset is added to every anterior-posterior position, in millimeters
		APOffset float64 `yaml:"apOffset"`

		// ClosingPasses is the number of closing passes used when rebuilding
		// a region from atlas points
		ClosingPasses int `yaml:"closingPasses"`

		// RegionOpeningPasses is the number of erosions (then dilations) used
		// to clean an atlas region after rescaling it to the display level
		RegionOpeningPasses int `yaml:"regionOpeningPasses"`
	} `yaml:"atlas"`

	// Registration image export
	Registration struct {
		// Level is the pyramid level (counted from full resolution) exported
		Level int `yaml:"level"`

		// Channel is the 1-based channel exported
		Channel int `yaml:"channel"`

		// Resolution is the target pixel size in micrometers; 0 disables export
		Resolution float64 `yaml:"resolution"`
	} `yaml:"registration"`

	// Output parameters
	Output struct {
		// Dir is the directory tiles and tables are written to
		Dir string `yaml:"dir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// Logfile sends log output to a rotating file when set
		Logfile string `yaml:"logfile"`

		// MaxLogSize is the size in megabytes at which the log file rotates
		MaxLogSize int `yaml:"maxLogSize"`

		// MaxLogAge is the number of days rotated log files are kept
		MaxLogAge int `yaml:"maxLogAge"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Pyramid.TrailingNonPyramid = 2
	cfg.Pyramid.DisplayLevelFromLowest = 2
	cfg.Pyramid.StepTolerance = 0.05
	cfg.Pyramid.Strict = false

	// 6 * 128 = 768 px tiles at full resolution
	cfg.Tiles.SizeMultiplier = 6
	cfg.Tiles.SizeUnit = 128
	cfg.Tiles.DropFirstCorner = true
	cfg.Tiles.CleanCorners = false
	cfg.Tiles.FocusLevel = 0

	cfg.Atlas.Resolution = 25.0
	cfg.Atlas.APOffset = 0.0
	cfg.Atlas.ClosingPasses = 1
	cfg.Atlas.RegionOpeningPasses = 2

	cfg.Registration.Level = 0
	cfg.Registration.Channel = 1
	cfg.Registration.Resolution = 0

	cfg.Output.Dir = "ROIs"
	cfg.Output.Verbose = true
	cfg.Output.MaxLogSize = 10
	cfg.Output.MaxLogAge = 30

	return cfg
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if c.Pyramid.TrailingNonPyramid < 0 {
		return fmt.Errorf("pyramid.trailingNonPyramid must be non-negative, got %d", c.Pyramid.TrailingNonPyramid)
	}
	if c.Pyramid.DisplayLevelFromLowest < 1 {
		return fmt.Errorf("pyramid.displayLevelFromLowest must be at least 1, got %d", c.Pyramid.DisplayLevelFromLowest)
	}
	if c.Pyramid.StepTolerance < 0 {
		return fmt.Errorf("pyramid.stepTolerance must be non-negative, got %g", c.Pyramid.StepTolerance)
	}
	if c.Tiles.SizeMultiplier < 1 || c.Tiles.SizeUnit < 1 {
		return fmt.Errorf("tile size must be positive, got %d x %d", c.Tiles.SizeMultiplier, c.Tiles.SizeUnit)
	}
	if c.Tiles.FocusLevel < 0 {
		return fmt.Errorf("tiles.focusLevel must be non-negative, got %d", c.Tiles.FocusLevel)
	}
	if c.Atlas.Resolution <= 0 {
		return fmt.Errorf("atlas.resolution must be positive, got %g", c.Atlas.Resolution)
	}
	if c.Atlas.ClosingPasses < 0 || c.Atlas.RegionOpeningPasses < 0 {
		return fmt.Errorf("morphology pass counts must be non-negative")
	}
	if c.Registration.Resolution < 0 {
		return fmt.Errorf("registration.resolution must be non-negative, got %g", c.Registration.Resolution)
	}
	return nil
}

// TileEdge returns the tile edge length at full resolution in pixels
func (c *Config) TileEdge() int {
	return c.Tiles.SizeMultiplier * c.Tiles.SizeUnit
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
