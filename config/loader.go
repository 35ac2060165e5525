package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = ".c4.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/c4"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger   *slog.Logger
	userPath string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, userPath: defaultUserConfigPath()}
}

// WithUserConfigPath overrides the user config location. An empty path
// disables the user layer.
func (l *Loader) WithUserConfigPath(path string) *Loader {
	l.userPath = path
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/c4/config.yaml)
// 3. Project config (.c4.yaml in workDir or its parents)
//
// A missing layer is skipped. A layer that exists but cannot be parsed is an
// error, as is an invalid merged result.
func (l *Loader) Load(workDir string) (*Config, error) {
	config := DefaultConfig()

	if l.userPath != "" {
		userConfig, err := LoadFromFile(l.userPath)
		switch {
		case err == nil:
			l.logger.Debug("Loaded user config", slog.String("path", l.userPath))
			config.Merge(userConfig)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	if projectConfigPath := FindProjectConfig(workDir); projectConfigPath != "" {
		projectConfig, err := LoadFromFile(projectConfigPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
		config.Merge(projectConfig)
	} else {
		l.logger.Debug("No project config found")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFile loads defaults overlaid with a single explicit file, bypassing
// the user and project layers.
func (l *Loader) LoadFile(path string) (*Config, error) {
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Loaded config", slog.String("path", path))
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaultUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// FindProjectConfig searches for .c4.yaml in dir and its parents.
func FindProjectConfig(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
