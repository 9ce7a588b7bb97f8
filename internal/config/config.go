package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds file-based defaults for the tool. Command line flags take
// precedence over every field.
type Config struct {
	// WorkDir is the directory patches are applied in. Empty means the
	// process working directory.
	WorkDir string `yaml:"workdir"`
	// Plain disables the interactive terminal UI.
	Plain bool `yaml:"plain"`
	// ShowDiff prints a colored diff of every change.
	ShowDiff bool `yaml:"show_diff"`
	// NoState skips recording the operation in the undo history.
	NoState bool `yaml:"no_state"`
	// NoReload skips telling a running Neovim instance to reload buffers.
	NoReload bool `yaml:"no_reload"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.expandEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Discover loads the first configuration file found among the default
// locations: ./.apf.yaml, then $XDG_CONFIG_HOME/apf/config.yaml, falling
// back to ~/.config/apf/config.yaml. When no file exists an empty config
// is returned.
func Discover() (*Config, error) {
	for _, path := range candidatePaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return Load(path)
	}
	return &Config{}, nil
}

func candidatePaths() []string {
	paths := []string{".apf.yaml"}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "apf", "config.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "apf", "config.yaml"))
	}
	return paths
}

// expandEnv expands environment variables in all path fields.
func (c *Config) expandEnv() {
	c.WorkDir = os.ExpandEnv(c.WorkDir)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.WorkDir != "" {
		info, err := os.Stat(c.WorkDir)
		if err != nil {
			return fmt.Errorf("workdir does not exist: %s", c.WorkDir)
		}
		if !info.IsDir() {
			return fmt.Errorf("workdir is not a directory: %s", c.WorkDir)
		}
	}
	return nil
}
