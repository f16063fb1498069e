package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the in-memory representation of ~/.deltarig/config.yaml.
type Config struct {
	// Runtime selects the inference backend: "native" or "http".
	// The DELTARIG_RUNTIME environment variable overrides it.
	Runtime string `yaml:"runtime,omitempty"`
	// LogLevel is the default slog level: debug, info, warn, or error.
	LogLevel string `yaml:"log_level,omitempty"`
	// LockTimeout is how long a load waits for a trainer to release the
	// manifest write lock, as a Go duration string.
	LockTimeout string `yaml:"lock_timeout,omitempty"`
}

// Dir returns the absolute path to ~/.deltarig/.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".deltarig"), nil
}

// ConfigPath returns the absolute path to ~/.deltarig/config.yaml.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first deltarig init.
func DefaultConfig() *Config {
	return &Config{
		Runtime:     "native",
		LogLevel:    "info",
		LockTimeout: "5s",
	}
}

// Load reads and parses ~/.deltarig/config.yaml.
// A missing file yields the defaults so read-only commands work before init.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return cfg, nil
}

// Save marshals cfg and writes it to ~/.deltarig/config.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
