package mcp

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter is one client's bucket and when it was last used.
type clientLimiter struct {
	lastSeen time.Time
	limiter  *rate.Limiter
}

// ClientRateLimiter keeps one token bucket per client address.
type ClientRateLimiter struct {
	lastCleanup     time.Time
	now             func() time.Time
	clients         map[string]*clientLimiter
	limit           rate.Limit
	burst           int
	cleanupInterval time.Duration
	maxIdleTime     time.Duration
	mu              sync.Mutex
}

// NewClientRateLimiter creates a per-client limiter refilled at rps tokens
// per second, holding at most burst.
func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	return &ClientRateLimiter{
		now:             time.Now,
		limit:           rate.Limit(rps),
		burst:           burst,
		clients:         make(map[string]*clientLimiter),
		cleanupInterval: 5 * time.Minute,
		maxIdleTime:     10 * time.Minute,
		lastCleanup:     time.Now(),
	}
}

// Allow reports whether the client identified by key may proceed.
func (c *ClientRateLimiter) Allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastCleanup) > c.cleanupInterval {
		for k, cl := range c.clients {
			if now.Sub(cl.lastSeen) > c.maxIdleTime {
				delete(c.clients, k)
			}
		}
		c.lastCleanup = now
	}

	cl, ok := c.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Clients returns how many buckets are tracked.
func (c *ClientRateLimiter) Clients() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// RateLimitMiddleware rejects requests over the client's budget with 429.
// Clients are keyed by RemoteAddr, which middleware.RealIP rewrites upstream.
func RateLimitMiddleware(limiter *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.RemoteAddr) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
