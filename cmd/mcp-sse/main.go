// Package main provides the HTTP MCP server entry point for hogmind
// (legacy SSE and Streamable HTTP on one listener).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/thebtf/hogmind/internal/app"
	"github.com/thebtf/hogmind/internal/config"
	"github.com/thebtf/hogmind/internal/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", config.Path(), "Path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	app.SetupLogging(os.Stderr, config.DefaultLogLevel, *debug)

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	app.SetupLogging(os.Stderr, cfg.LogLevel, *debug)
	if *port > 0 {
		cfg.HTTPPort = *port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *configPath); err != nil {
		log.Fatal().Err(err).Msg("MCP HTTP server error")
	}
}

func run(ctx context.Context, cfg *config.Config, configPath string) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := app.Start(ctx, cfg, registry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		svc.Client.Shutdown(shutdownCtx)
	}()

	if w := app.WatchConfig(configPath); w != nil {
		defer w.Close()
	}

	server := mcp.NewServer(svc.Dispatcher, Version)
	handler, sse := mcp.NewHTTPRouter(server, mcp.RouterOptions{
		Health:    svc.Client.HealthCheck,
		Gatherer:  registry,
		AuthToken: cfg.AuthToken,
		RateLimit: cfg.RateLimit,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- httpServer.ListenAndServe()
	}()

	log.Info().
		Int("port", cfg.HTTPPort).
		Bool("tokenAuthEnabled", cfg.AuthToken != "").
		Str("version", Version).
		Msg("Starting MCP HTTP server")

	select {
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down MCP HTTP server")
		sse.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("MCP HTTP server shutdown failed")
		}
	}
	return nil
}
