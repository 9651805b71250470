// Package dashboard wires the content store, render pipeline, and export
// queue behind the HTTP and MCP surfaces.
package dashboard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Listen   string       `yaml:"listen"`
	DBPath   string       `yaml:"db_path"`
	LogLevel string       `yaml:"log_level"`
	Render   RenderConfig `yaml:"render"`
	Queue    QueueConfig  `yaml:"queue"`
	// EventRetentionDays bounds the export event log.
	EventRetentionDays int `yaml:"event_retention_days"`
}

// RenderConfig configures the export pipeline.
type RenderConfig struct {
	// MaxConcurrent caps simultaneous Chrome instances.
	MaxConcurrent int `yaml:"max_concurrent"`
	// TimeoutSeconds bounds document load per export.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// FontPath is an optional local bold font file.
	FontPath string `yaml:"font_path"`
	// RemoteFontURL is used when FontPath is missing or unreadable.
	RemoteFontURL string `yaml:"remote_font_url"`
	// ChromeBin overrides Chrome binary resolution.
	ChromeBin string `yaml:"chrome_bin"`
	// NoSandbox disables the Chrome sandbox (container deployments).
	NoSandbox bool `yaml:"no_sandbox"`
}

// QueueConfig configures the async export queue.
type QueueConfig struct {
	VisibilitySeconds int `yaml:"visibility_seconds"`
	MaxAttempts       int `yaml:"max_attempts"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:   ":8086",
		DBPath:   "db/maquette.db",
		LogLevel: "info",
		Render: RenderConfig{
			MaxConcurrent:  2,
			TimeoutSeconds: 30,
		},
		Queue: QueueConfig{
			VisibilitySeconds: 120,
			MaxAttempts:       3,
		},
		EventRetentionDays: 90,
	}
}

// LoadConfig reads a YAML config file merged over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Render.MaxConcurrent <= 0 {
		return fmt.Errorf("render.max_concurrent must be > 0")
	}
	if c.Render.TimeoutSeconds <= 0 {
		return fmt.Errorf("render.timeout_seconds must be > 0")
	}
	if c.Queue.VisibilitySeconds <= c.Render.TimeoutSeconds {
		return fmt.Errorf("queue.visibility_seconds must exceed render.timeout_seconds")
	}
	return nil
}
