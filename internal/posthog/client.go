// Package posthog provides the data access client for the PostHog REST API.
package posthog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultHost is the PostHog cloud instance.
	DefaultHost = "https://app.posthog.com"

	// DefaultTimeout bounds a single upstream HTTP call.
	DefaultTimeout = 30 * time.Second

	instrumentationName = "github.com/thebtf/hogmind/internal/posthog"

	// errorBodyLimit caps how much of a failed response body ends up in errors.
	errorBodyLimit = 512
)

// ErrNotConfigured is returned when the client is missing host or project.
var ErrNotConfigured = errors.New("posthog client not configured")

// FetchError reports a failed upstream call.
type FetchError struct {
	Err        error
	Op         string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Config holds client settings.
type Config struct {
	HTTPClient    *http.Client
	Host          string
	ProjectID     string
	APIKey        string
	ProjectAPIKey string
	Timeout       time.Duration
}

// Client talks to {host}/api/projects/{projectId}/.
// It is safe for concurrent use; the only shared state is the HTTP
// connection pool and the capture queue.
type Client struct {
	http      *http.Client
	tracker   *Tracker
	tracer    trace.Tracer
	requests  metric.Int64Counter
	host      string
	projectID string
	apiKey    string
	group     singleflight.Group
}

// NewClient creates a new PostHog client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ProjectID == "" || cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	captureKey := cfg.ProjectAPIKey
	if captureKey == "" {
		captureKey = cfg.APIKey
	}

	host := strings.TrimRight(cfg.Host, "/")
	meter := otel.Meter(instrumentationName)
	requests, err := meter.Int64Counter("hogmind.upstream.requests",
		metric.WithDescription("Upstream PostHog API requests partitioned by operation and outcome."))
	if err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}

	return &Client{
		http:      httpClient,
		tracker:   NewTracker(httpClient, host, captureKey),
		tracer:    otel.Tracer(instrumentationName),
		requests:  requests,
		host:      host,
		projectID: cfg.ProjectID,
		apiKey:    cfg.APIKey,
	}, nil
}

// Host returns the configured upstream host.
func (c *Client) Host() string { return c.host }

// ProjectID returns the configured project identifier.
func (c *Client) ProjectID() string { return c.projectID }

// projectURL builds {host}/api/projects/{id}/{path}?{query}.
func (c *Client) projectURL(path string, query url.Values) string {
	u := fmt.Sprintf("%s/api/projects/%s/%s", c.host, url.PathEscape(c.projectID), path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// getJSON issues a GET and decodes the body into out. Identical concurrent
// GETs share one upstream round trip; each caller decodes its own copy.
func (c *Client) getJSON(ctx context.Context, op, endpoint string, out any) error {
	v, err, shared := c.group.Do(endpoint, func() (any, error) {
		return c.do(context.WithoutCancel(ctx), op, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return err
	}
	if shared {
		log.Debug().Str("op", op).Msg("Coalesced concurrent upstream request")
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(v.([]byte), out); err != nil {
		return &FetchError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// postJSON issues a POST with a JSON body and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, op, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &FetchError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}
	data, err := c.do(ctx, op, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &FetchError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// do performs one authenticated request and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte) (data []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "posthog "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("posthog.project_id", c.projectID),
		))
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error().Err(err).Str("op", op).Msg("PostHog request failed")
		}
		c.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("outcome", outcome),
		))
		span.End()
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &FetchError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &FetchError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err: fmt.Errorf("posthog API error (status=%d): %s",
				resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("PostHog request complete")
	return data, nil
}
