package posthog

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// HealthCheck requests the project root. Any failure yields false.
func (c *Client) HealthCheck(ctx context.Context) bool {
	if _, err := c.do(ctx, "check health", http.MethodGet, c.projectURL("", nil), nil); err != nil {
		log.Warn().Err(err).Str("host", c.host).Msg("PostHog health check failed")
		return false
	}
	return true
}

// Shutdown flushes pending captured events and releases idle connections.
// It never fails; problems are logged.
func (c *Client) Shutdown(ctx context.Context) {
	if err := c.tracker.Flush(ctx); err != nil {
		log.Error().Err(err).Int("pending", c.tracker.Pending()).Msg("Failed to flush captured events on shutdown")
	}
	c.http.CloseIdleConnections()
	log.Debug().Msg("PostHog client shut down")
}
