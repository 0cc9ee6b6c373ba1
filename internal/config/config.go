// ABOUTME: Configuration loading and parsing for the ramp tools
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete ramp configuration
type Config struct {
	Backend    BackendConfig    `yaml:"backend"`
	Capture    CaptureConfig    `yaml:"capture"`
	Extraction ExtractionConfig `yaml:"extraction"`
	State      StateConfig      `yaml:"state"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// BackendConfig holds the onboarding backend connection settings
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`

	RequestTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	RequestTimeoutRaw string `yaml:"request_timeout"`
}

// CaptureConfig holds screen recording settings
type CaptureConfig struct {
	FFmpegPath   string `yaml:"ffmpeg_path"`
	Display      string `yaml:"display"`
	DisplayAudio string `yaml:"display_audio"`
	Microphone   string `yaml:"microphone"`
	FrameRate    int    `yaml:"frame_rate"`
	SegmentSecs  int    `yaml:"segment_seconds"`
	OutDir       string `yaml:"out_dir"`
}

// ExtractionConfig holds step extraction polling settings
type ExtractionConfig struct {
	PollInterval time.Duration `yaml:"-"`
	MaxWait      time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	PollIntervalRaw string `yaml:"poll_interval"`
	MaxWaitRaw      string `yaml:"max_wait"`
}

// StateConfig holds local session state storage configuration
type StateConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads the file at path when it exists, falling back to
// defaults when the file is absent. A path that exists but fails to
// parse is still an error.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		return cfg, nil
	}
	return Load(path)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000/api",
		},
		State: StateConfig{
			Path: filepath.Join(ConfigDir(), "state.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ConfigDir returns the directory ramp stores its config and local
// state under, honoring XDG_CONFIG_HOME.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ramp")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ramp"
	}
	return filepath.Join(home, ".config", "ramp")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}

	if c.Capture.FrameRate < 0 {
		return fmt.Errorf("capture.frame_rate must not be negative")
	}
	if c.Capture.SegmentSecs < 0 {
		return fmt.Errorf("capture.segment_seconds must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Backend.RequestTimeoutRaw != "" {
		cfg.Backend.RequestTimeout, err = time.ParseDuration(cfg.Backend.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing request_timeout %q: %w", cfg.Backend.RequestTimeoutRaw, err)
		}
	}

	if cfg.Extraction.PollIntervalRaw != "" {
		cfg.Extraction.PollInterval, err = time.ParseDuration(cfg.Extraction.PollIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_interval %q: %w", cfg.Extraction.PollIntervalRaw, err)
		}
	}

	if cfg.Extraction.MaxWaitRaw != "" {
		cfg.Extraction.MaxWait, err = time.ParseDuration(cfg.Extraction.MaxWaitRaw)
		if err != nil {
			return fmt.Errorf("parsing max_wait %q: %w", cfg.Extraction.MaxWaitRaw, err)
		}
	}

	return nil
}
