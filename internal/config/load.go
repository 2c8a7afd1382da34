package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	return load(&cliFlags)
}

func load(f *flags) (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the standard locations
	configPath := f.config
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg, f)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the application cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid window size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Demo.Boxes < 0 {
		errs = append(errs, fmt.Errorf("demo boxes must not be negative: %d", c.Demo.Boxes))
	}
	if c.Demo.Tick <= 0 {
		errs = append(errs, fmt.Errorf("demo tick must be positive: %v", c.Demo.Tick))
	}
	if c.Renderer.SSAODistanceThreshold < 0 {
		errs = append(errs, fmt.Errorf("ssao distance threshold must not be negative: %v", c.Renderer.SSAODistanceThreshold))
	}
	return errors.Join(errs...)
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Scenery")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Scenery")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "scenery")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "scenery")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
