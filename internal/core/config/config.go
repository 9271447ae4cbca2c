// Package config handles configuration loading and validation for leaf.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	// Viewer is the argv prefix used to open extracted images. The image
	// file path is appended as the final argument.
	Viewer []string `yaml:"viewer"`
	// Editor is the argv prefix used to open a chapter's source markup.
	Editor []string `yaml:"editor"`
	// Cols is the default dump-mode reflow width; 0 means no wrapping.
	Cols int `yaml:"cols"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	return Config{
		Viewer: []string{"xdg-open"},
		Editor: []string{editor},
		Cols:   0,
	}
}

// Load reads configuration from the given path. If the path is empty or the
// file doesn't exist, defaults are returned.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Cols < 0 {
		return fmt.Errorf("cols must be >= 0, got %d", c.Cols)
	}
	if len(c.Viewer) == 0 {
		return fmt.Errorf("viewer command must not be empty")
	}
	if len(c.Editor) == 0 {
		return fmt.Errorf("editor command must not be empty")
	}
	return nil
}
