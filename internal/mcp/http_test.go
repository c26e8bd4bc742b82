package mcp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebtf/hogmind/internal/tools"
)

func newTestRouter(opts RouterOptions) (http.Handler, *SSEHandler, *fakeBackend) {
	backend := &fakeBackend{response: tools.OK(nil, "ok")}
	handler, sse := NewHTTPRouter(NewServer(backend, "1.2.3"), opts)
	return handler, sse, backend
}

func serve(h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		health func(context.Context) bool
		code   int
		status string
	}{
		{name: "no health check", code: http.StatusOK, status: "ok"},
		{name: "healthy upstream", health: func(context.Context) bool { return true }, code: http.StatusOK, status: "ok"},
		{name: "unhealthy upstream", health: func(context.Context) bool { return false }, code: http.StatusServiceUnavailable, status: "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestRouter(RouterOptions{Health: tt.health, AuthToken: "secret"})
			rec := serve(h, http.MethodGet, "/health", "", nil)
			assert.Equal(t, tt.code, rec.Code)

			var body healthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, "1.2.3", body.Version)
		})
	}
}

func TestTokenAuth(t *testing.T) {
	h, _, _ := newTestRouter(RouterOptions{AuthToken: "secret"})
	ping := `{"jsonrpc":"2.0","id":1,"method":"ping"}`

	tests := []struct {
		name   string
		header http.Header
		code   int
	}{
		{name: "missing", code: http.StatusUnauthorized},
		{name: "wrong", header: http.Header{"X-Auth-Token": {"nope"}}, code: http.StatusUnauthorized},
		{name: "x-auth-token", header: http.Header{"X-Auth-Token": {"secret"}}, code: http.StatusOK},
		{name: "bearer", header: http.Header{"Authorization": {"Bearer secret"}}, code: http.StatusOK},
		{name: "basic is rejected", header: http.Header{"Authorization": {"Basic secret"}}, code: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, http.MethodPost, "/mcp", ping, tt.header)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestStreamable(t *testing.T) {
	h, _, backend := newTestRouter(RouterOptions{})

	rec := serve(h, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_events","arguments":{}}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"get_events"}, backend.calls)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Error)

	rec = serve(h, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, http.MethodPost, "/mcp", `{oops`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeParseError, resp.Error.Code)

	rec = serve(h, http.MethodGet, "/mcp", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSSEMessage(t *testing.T) {
	h, sse, _ := newTestRouter(RouterOptions{})

	rec := serve(h, http.MethodPost, "/message", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodPost, "/message?sessionId=unknown", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	sess := newSSESession()
	sse.sessions.Store("s1", sess)
	assert.Equal(t, 1, sse.Sessions())

	rec = serve(h, http.MethodPost, "/message?sessionId=s1", `{"jsonrpc":"2.0","id":7,"method":"ping"}`, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case resp := <-sess.responses:
		assert.EqualValues(t, 7, resp.ID)
		assert.Nil(t, resp.Error)
	default:
		t.Fatal("no response queued")
	}

	rec = serve(h, http.MethodPost, "/message?sessionId=s1", `{"jsonrpc":"2.0","method":"notifications/cancelled"}`, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(sse, http.MethodPost, "/message?sessionId=s1", `{"jsonrpc":"2.0","id":8,"method":"ping"}`, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, http.StatusNotFound, serve(sse, http.MethodGet, "/other", "", nil).Code)

	sse.Close()
	assert.Zero(t, sse.Sessions())

	sse.sessions.Store("s1", sess)
	rec = serve(h, http.MethodPost, "/message?sessionId=s1", `{"jsonrpc":"2.0","id":9,"method":"ping"}`, nil)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestSSEStream_CloseEndsStream(t *testing.T) {
	h, sse, _ := newTestRouter(RouterOptions{})
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := make([]byte, 256)
	_, err = resp.Body.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, sse.Sessions())

	sse.Close()

	_, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NoError(t, ctx.Err())
	assert.Eventually(t, func() bool { return sse.Sessions() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSSEStream(t *testing.T) {
	h, sse, _ := newTestRouter(RouterOptions{})
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, 256)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	event := string(buf[:n])
	require.True(t, strings.HasPrefix(event, "event: endpoint\ndata: /message?sessionId="), event)
	endpoint := strings.TrimSpace(strings.TrimPrefix(event, "event: endpoint\ndata: "))

	post, err := http.Post(srv.URL+endpoint, "application/json", strings.NewReader(`{"jsonrpc":"2.0","id":"x","method":"ping"}`))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, post.Body)
	post.Body.Close()
	assert.Equal(t, http.StatusAccepted, post.StatusCode)

	n, err = resp.Body.Read(buf)
	require.NoError(t, err)
	msg := string(buf[:n])
	assert.True(t, strings.HasPrefix(msg, "event: message\ndata: "), msg)
	assert.Contains(t, msg, `"id":"x"`)
	assert.Equal(t, 1, sse.Sessions())
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "hogmind_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h, _, _ := newTestRouter(RouterOptions{Gatherer: reg})
	rec := serve(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hogmind_test_total 1")

	h, _, _ = newTestRouter(RouterOptions{})
	rec = serve(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	h, _, _ := newTestRouter(RouterOptions{RateLimit: 0.001, RateBurst: 2})
	ping := `{"jsonrpc":"2.0","id":1,"method":"ping"}`

	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/mcp", ping, nil).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/mcp", ping, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodPost, "/mcp", ping, nil).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "", nil).Code)
}

func TestClientRateLimiter_Refills(t *testing.T) {
	now := time.Unix(0, 0)
	limiter := NewClientRateLimiter(1, 1)
	limiter.now = func() time.Time { return now }
	limiter.lastCleanup = now

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	now = now.Add(1500 * time.Millisecond)
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
}

func TestClientRateLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Unix(0, 0)
	limiter := NewClientRateLimiter(1, 1)
	limiter.now = func() time.Time { return now }
	limiter.lastCleanup = now

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"))
	assert.Equal(t, 2, limiter.Clients())

	now = now.Add(20 * time.Minute)
	assert.True(t, limiter.Allow("c"))
	assert.Equal(t, 1, limiter.Clients())
}

func TestMaxBodyAndHeaders(t *testing.T) {
	h, _, _ := newTestRouter(RouterOptions{})

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
	req.ContentLength = maxBodyBytes + 1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
