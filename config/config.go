// Package config provides configuration loading and management for the c4
// tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete tool configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Build  BuildConfig  `yaml:"build"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the development server
type ServerConfig struct {
	// Host is the bind address (default: localhost)
	Host string `yaml:"host"`
	// Port is the listen port (default: 4400)
	Port int `yaml:"port"`
	// NoReload disables the file watcher and live reload
	NoReload bool `yaml:"no_reload"`
	// Debounce is how long file events are coalesced before a reload
	Debounce time.Duration `yaml:"debounce"`
}

// BuildConfig configures `c4 build`
type BuildConfig struct {
	// Output is the export directory, relative to the workspace if not absolute
	Output string `yaml:"output"`
	// Formats lists the export formats (json, yaml, turtle, ntriples)
	Formats []string `yaml:"formats"`
	// BaseIRI prefixes RDF subjects
	BaseIRI string `yaml:"base_iri"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "localhost",
			Port:     4400,
			Debounce: 100 * time.Millisecond,
		},
		Build: BuildConfig{
			Output:  "dist",
			Formats: []string{"json"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.Debounce < 0 {
		return fmt.Errorf("server.debounce must not be negative")
	}
	if c.Build.Output == "" {
		return fmt.Errorf("build.output is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). NoReload can only be switched on by a later layer.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Server
	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.NoReload {
		c.Server.NoReload = true
	}
	if other.Server.Debounce != 0 {
		c.Server.Debounce = other.Server.Debounce
	}

	// Build
	if other.Build.Output != "" {
		c.Build.Output = other.Build.Output
	}
	if len(other.Build.Formats) > 0 {
		c.Build.Formats = other.Build.Formats
	}
	if other.Build.BaseIRI != "" {
		c.Build.BaseIRI = other.Build.BaseIRI
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
