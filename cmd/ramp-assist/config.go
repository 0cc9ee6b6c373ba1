// ABOUTME: Configuration loading for the ramp-assist REPL
// ABOUTME: Loads TOML config from XDG path with environment variable expansion

package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/rampkit/ramp/internal/config"
)

type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Assistant AssistantConfig `toml:"assistant"`
	Logging   LoggingConfig   `toml:"logging"`
}

type BackendConfig struct {
	URL string `toml:"url"`
}

type AssistantConfig struct {
	Agent     string `toml:"agent"`
	StatePath string `toml:"state_path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// defaultConfigPath is the XDG location for the assist config.
func defaultConfigPath() string {
	return filepath.Join(config.ConfigDir(), "assist.toml")
}

// loadConfig reads config from the given path, expanding environment
// variables. A missing file yields defaults.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultAssistConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables (${VAR} syntax)
	expanded := expandEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func defaultAssistConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = "http://localhost:8000/api"
	}
	if cfg.Assistant.StatePath == "" {
		cfg.Assistant.StatePath = filepath.Join(config.ConfigDir(), "state.db")
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that required config fields are present and valid.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if _, err := url.Parse(c.Backend.URL); err != nil {
		return fmt.Errorf("backend.url is not a valid URL: %w", err)
	}
	return nil
}
