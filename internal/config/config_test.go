package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, 37780, cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_key: phx_file
project_id: "42"
host: https://eu.posthog.com
http_port: 9000
http_timeout: 10s
log_level: debug
`), 0o600))

	t.Setenv(EnvAPIKey, "phx_env")
	t.Setenv(EnvHTTPPort, "")
	t.Setenv(EnvProjectID, "")
	t.Setenv(EnvHost, "")
	t.Setenv(EnvHTTPTimeout, "")
	t.Setenv(EnvLogLevel, "WARN")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "phx_env", cfg.APIKey)
	assert.Equal(t, "42", cfg.ProjectID)
	assert.Equal(t, "https://eu.posthog.com", cfg.Host)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPPort, cfg.HTTPPort)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("http_port: [1"), 0o600))

	_, err := Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")

	t.Setenv(EnvHTTPTimeout, "soon")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvHTTPTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		msg     string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing key", mutate: func(c *Config) { c.APIKey = "" }, wantErr: ErrMissingAPIKey},
		{name: "missing project", mutate: func(c *Config) { c.ProjectID = "" }, wantErr: ErrMissingProjectID},
		{name: "bad port", mutate: func(c *Config) { c.HTTPPort = 70000 }, msg: "http_port"},
		{name: "bad timeout", mutate: func(c *Config) { c.HTTPTimeout = 0 }, msg: "http_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.APIKey = "phx_key"
			cfg.ProjectID = "1"
			tt.mutate(cfg)

			err := cfg.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.msg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.msg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestCaptureKey(t *testing.T) {
	cfg := &Config{APIKey: "phx_personal"}
	assert.Equal(t, "phx_personal", cfg.CaptureKey())
	cfg.ProjectAPIKey = "phc_project"
	assert.Equal(t, "phc_project", cfg.CaptureKey())
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/hogmind.yaml")
	assert.Equal(t, "/etc/hogmind.yaml", Path())
}
