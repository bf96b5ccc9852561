// Package config provides configuration loading and management for
// gradientfield. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters for the gradient filter
	Processing struct {
		// Sigma is the Gaussian width in physical units (required, > 0)
		Sigma float64 `yaml:"sigma"`

		// NormalizeAcrossScale enables scale-space normalization of the
		// derivative responses
		NormalizeAcrossScale bool `yaml:"normalizeAcrossScale"`

		// UseImageDirection rotates gradients into physical space using
		// the image direction matrix
		UseImageDirection bool `yaml:"useImageDirection"`

		// NumWorkers caps how many axis chains run concurrently
		NumWorkers int `yaml:"numWorkers"`
	} `yaml:"processing"`

	// Input parameters
	Input struct {
		// SliceGap is the physical distance between consecutive slices in
		// mm; it becomes the z-axis spacing of the stacked volume
		SliceGap float64 `yaml:"sliceGap"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// SlicesDir is where exported gradient slices are written
		SlicesDir string `yaml:"slicesDir"`

		// HistogramFile is the path of the gradient-magnitude histogram
		// plot; empty disables the plot
		HistogramFile string `yaml:"histogramFile"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.Sigma = 1.0
	cfg.Processing.NormalizeAcrossScale = false
	cfg.Processing.UseImageDirection = true
	cfg.Processing.NumWorkers = runtime.NumCPU()

	cfg.Input.SliceGap = 1.0

	cfg.Output.SlicesDir = "gradient_slices"
	cfg.Output.HistogramFile = "gradient_histogram.png"
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks the parameter ranges that the gradient filter would
// reject, so configuration problems surface before any work starts.
func (cfg *Config) Validate() error {
	if cfg.Processing.Sigma <= 0 {
		return fmt.Errorf("processing.sigma must be positive, got %v", cfg.Processing.Sigma)
	}
	if cfg.Input.SliceGap <= 0 {
		return fmt.Errorf("input.sliceGap must be positive, got %v", cfg.Input.SliceGap)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
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
