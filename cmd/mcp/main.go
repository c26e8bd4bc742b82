// Package main provides the stdio MCP server entry point for hogmind.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/thebtf/hogmind/internal/app"
	"github.com/thebtf/hogmind/internal/config"
	"github.com/thebtf/hogmind/internal/mcp"
	"github.com/thebtf/hogmind/internal/tools"
	"github.com/thebtf/hogmind/pkg/models"
)

// Version is set at build time via ldflags.
var Version = "dev"

const usage = `hogmind - PostHog MCP server

Usage:
  hogmind [serve] [--config path] [--debug]
  hogmind test-connection [--config path]
  hogmind info
  hogmind track --distinct-id ID --event NAME [--prop key=value ...]
`

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve(args)
	case "test-connection":
		err = testConnection(args)
	case "info":
		printInfo(os.Stdout)
	case "track":
		err = track(args)
	case "help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("Command failed")
		os.Exit(1)
	}
}

type commonFlags struct {
	configPath *string
	debug      *bool
}

func newFlagSet(name string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, commonFlags{
		configPath: fs.String("config", config.Path(), "Path to the YAML config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
	}
}

// load parses flags, sets up stderr logging and loads the config.
func load(fs *flag.FlagSet, common commonFlags, args []string) (*config.Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	// MCP uses stdout for communication, so log to stderr
	app.SetupLogging(os.Stderr, config.DefaultLogLevel, *common.debug)

	cfg, err := app.LoadConfig(*common.configPath)
	if err != nil {
		return nil, err
	}
	app.SetupLogging(os.Stderr, cfg.LogLevel, *common.debug)
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func serve(args []string) error {
	fs, common := newFlagSet("serve")
	cfg, err := load(fs, common, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := app.Start(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		svc.Client.Shutdown(shutdownCtx)
	}()

	if w := app.WatchConfig(*common.configPath); w != nil {
		defer w.Close()
	}

	server := mcp.NewServer(svc.Dispatcher, Version)
	log.Info().
		Str("host", cfg.Host).
		Str("project", cfg.ProjectID).
		Str("version", Version).
		Msg("Starting MCP server")

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		log.Info().Msg("Stdin closed, shutting down MCP server")
	case <-ctx.Done():
		log.Info().Msg("Shutting down MCP server")
	}
	return nil
}

func testConnection(args []string) error {
	fs, common := newFlagSet("test-connection")
	cfg, err := load(fs, common, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := app.NewClient(cfg)
	if err != nil {
		return err
	}
	defer client.Shutdown(context.Background())

	checkCtx, checkCancel := context.WithTimeout(ctx, app.StartupTimeout)
	defer checkCancel()
	if !client.HealthCheck(checkCtx) {
		return fmt.Errorf("%w: %s", app.ErrUnhealthy, cfg.Host)
	}
	log.Info().Str("host", cfg.Host).Str("project", cfg.ProjectID).Msg("PostHog connection successful")
	return nil
}

// propFlag collects repeated --prop key=value pairs.
type propFlag models.Properties

func (p propFlag) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// Set stores value as a number or boolean when it parses as one.
func (p propFlag) Set(kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	if !ok || key == "" {
		return errors.New("expected key=value")
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		p[key] = n
	} else if b, err := strconv.ParseBool(value); err == nil {
		p[key] = b
	} else {
		p[key] = value
	}
	return nil
}

func track(args []string) error {
	fs, common := newFlagSet("track")
	distinctID := fs.String("distinct-id", "", "Distinct id of the user (required)")
	event := fs.String("event", "", "Event name (required)")
	props := propFlag{}
	fs.Var(props, "prop", "Event property as key=value, repeatable")

	cfg, err := load(fs, common, args)
	if err != nil {
		return err
	}
	if *distinctID == "" || *event == "" {
		return errors.New("--distinct-id and --event are required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := app.NewClient(cfg)
	if err != nil {
		return err
	}
	defer client.Shutdown(context.Background())

	if err := client.TrackEvent(ctx, *distinctID, *event, models.Properties(props)); err != nil {
		return err
	}
	log.Info().Str("event", *event).Str("distinct_id", *distinctID).Msg("Event captured")
	return nil
}

func printInfo(w io.Writer) {
	fmt.Fprintf(w, "hogmind - PostHog MCP Server\n")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "Version: %s\n", Version)
	fmt.Fprintf(w, "Description: AI-powered analytics assistant for PostHog\n\n")

	fmt.Fprintf(w, "Available Tools:\n")
	for _, t := range tools.NewDispatcher(nil).Tools() {
		fmt.Fprintf(w, "  - %s: %s\n", t.Name, t.Description)
	}

	fmt.Fprintf(w, "\nResources:\n")
	for _, r := range tools.Resources() {
		fmt.Fprintf(w, "  - %s: %s\n", r.URI, r.Description)
	}

	fmt.Fprintf(w, "\nEnvironment Variables:\n")
	for _, env := range []struct{ name, desc string }{
		{config.EnvAPIKey, "PostHog personal API key (required)"},
		{config.EnvProjectID, "PostHog project id (required)"},
		{config.EnvHost, "PostHog instance URL (default " + config.DefaultHost + ")"},
		{config.EnvProjectAPIKey, "Project API key used for event capture"},
		{config.EnvHTTPPort, fmt.Sprintf("HTTP transport port (default %d)", config.DefaultHTTPPort)},
		{config.EnvAuthToken, "Token required by the HTTP transport"},
		{config.EnvLogLevel, "Log level (debug, info, warn, error)"},
		{config.EnvHTTPTimeout, "Upstream request timeout (default " + config.DefaultHTTPTimeout.String() + ")"},
		{config.EnvConfigPath, "Config file path"},
	} {
		fmt.Fprintf(w, "  - %s: %s\n", env.name, env.desc)
	}
}
