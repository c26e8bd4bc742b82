// Package config loads hogmind settings from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultHost is the PostHog cloud instance.
	DefaultHost = "https://app.posthog.com"

	// DefaultHTTPPort is the listen port of the HTTP transport.
	DefaultHTTPPort = 37780

	// DefaultHTTPTimeout bounds one upstream call.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultLogLevel is used when neither file nor environment sets one.
	DefaultLogLevel = "info"

	// DefaultRateLimit is requests per second per client on the HTTP transport.
	DefaultRateLimit = 20
)

// Environment variables.
const (
	EnvAPIKey        = "POSTHOG_API_KEY"
	EnvProjectID     = "POSTHOG_PROJECT_ID"
	EnvHost          = "POSTHOG_HOST"
	EnvProjectAPIKey = "POSTHOG_PROJECT_API_KEY"
	EnvHTTPPort      = "HOGMIND_HTTP_PORT"
	EnvAuthToken     = "HOGMIND_AUTH_TOKEN"
	EnvLogLevel      = "HOGMIND_LOG_LEVEL"
	EnvHTTPTimeout   = "HOGMIND_HTTP_TIMEOUT"
	EnvConfigPath    = "HOGMIND_CONFIG"
)

var (
	// ErrMissingAPIKey means no personal API key was configured.
	ErrMissingAPIKey = errors.New("POSTHOG_API_KEY is required")
	// ErrMissingProjectID means no project id was configured.
	ErrMissingProjectID = errors.New("POSTHOG_PROJECT_ID is required")
)

// Config holds the application configuration.
type Config struct {
	// PostHog settings
	APIKey        string `yaml:"api_key"`
	ProjectID     string `yaml:"project_id"`
	Host          string `yaml:"host"`
	ProjectAPIKey string `yaml:"project_api_key"` // capture key, falls back to APIKey

	// HTTP transport settings
	AuthToken string  `yaml:"auth_token"`
	HTTPPort  int     `yaml:"http_port"`
	RateLimit float64 `yaml:"rate_limit"`

	LogLevel    string        `yaml:"log_level"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Host:        DefaultHost,
		HTTPPort:    DefaultHTTPPort,
		HTTPTimeout: DefaultHTTPTimeout,
		LogLevel:    DefaultLogLevel,
		RateLimit:   DefaultRateLimit,
	}
}

// Path returns the config file location: $HOGMIND_CONFIG, else ~/.hogmind/config.yaml.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hogmind", "config.yaml")
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from the environment. Empty values are ignored.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvAPIKey); ok {
		c.APIKey = v
	}
	if v, ok := get(EnvProjectID); ok {
		c.ProjectID = v
	}
	if v, ok := get(EnvHost); ok {
		c.Host = v
	}
	if v, ok := get(EnvProjectAPIKey); ok {
		c.ProjectAPIKey = v
	}
	if v, ok := get(EnvAuthToken); ok {
		c.AuthToken = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := get(EnvHTTPPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHTTPPort, err)
		}
		c.HTTPPort = port
	}
	if v, ok := get(EnvHTTPTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHTTPTimeout, err)
		}
		c.HTTPTimeout = d
	}
	return nil
}

// Validate checks the settings required to reach PostHog.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.ProjectID == "" {
		return ErrMissingProjectID
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port %d out of range", c.HTTPPort)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

// CaptureKey returns the key used for event capture.
func (c *Config) CaptureKey() string {
	if c.ProjectAPIKey != "" {
		return c.ProjectAPIKey
	}
	return c.APIKey
}
