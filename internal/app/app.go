// Package app wires configuration, the PostHog client and the tool dispatcher
// for the server binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/thebtf/hogmind/internal/config"
	"github.com/thebtf/hogmind/internal/metrics"
	"github.com/thebtf/hogmind/internal/posthog"
	"github.com/thebtf/hogmind/internal/tools"
	"github.com/thebtf/hogmind/internal/watcher"
)

// StartupTimeout bounds the boot-time health check.
const StartupTimeout = 15 * time.Second

// ErrUnhealthy is returned when PostHog does not answer the startup health check.
var ErrUnhealthy = errors.New("posthog health check failed")

var _ tools.DataSource = (*posthog.Client)(nil)

// SetupLogging sends zerolog output to w in console format.
// debug wins over level; an unknown level falls back to info.
func SetupLogging(w io.Writer, level string, debug bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: true})
}

// LoadConfig loads and validates the configuration at path.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewClient builds the PostHog client from cfg.
func NewClient(cfg *config.Config) (*posthog.Client, error) {
	return posthog.NewClient(posthog.Config{
		Host:          cfg.Host,
		ProjectID:     cfg.ProjectID,
		APIKey:        cfg.APIKey,
		ProjectAPIKey: cfg.CaptureKey(),
		Timeout:       cfg.HTTPTimeout,
	})
}

// Services is what a server binary runs on.
type Services struct {
	Client     *posthog.Client
	Dispatcher *tools.Dispatcher
}

// Start builds the client, gates on the health check and registers metrics with reg.
// The client must be shut down by the caller.
func Start(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Services, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	checkCtx, cancel := context.WithTimeout(ctx, StartupTimeout)
	defer cancel()
	if !client.HealthCheck(checkCtx) {
		client.Shutdown(ctx)
		return nil, fmt.Errorf("%w: %s project %s", ErrUnhealthy, client.Host(), client.ProjectID())
	}

	if reg != nil {
		if err := metrics.Register(reg); err != nil {
			client.Shutdown(ctx)
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	dispatcher := tools.NewDispatcher(client, tools.WithObserver(metrics.ObserveToolCall))
	return &Services{Client: client, Dispatcher: dispatcher}, nil
}

// WatchConfig exits the process when the config file changes so the
// supervisor restarts it with fresh settings. A missing directory only warns.
func WatchConfig(path string) *watcher.Watcher {
	w, err := watcher.New(path, func() {
		log.Warn().Str("path", path).Msg("Config file changed, exiting for restart...")
		time.Sleep(100 * time.Millisecond)
		os.Exit(0)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create config watcher")
		return nil
	}
	if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start config watcher")
		_ = w.Close()
		return nil
	}
	log.Info().Str("path", path).Msg("Config file watcher started")
	return w
}
