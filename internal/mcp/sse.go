package mcp

import (
	"fmt"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// sessionBuffer is how many responses a slow SSE client may fall behind by.
const sessionBuffer = 32

// SSEHandler implements the legacy MCP SSE transport: GET /sse opens a stream
// and POST /message?sessionId=... submits requests whose responses arrive on it.
type SSEHandler struct {
	server   *Server
	sessions sync.Map // sessionID -> *sseSession
}

// sseSession is one open stream. done is closed when the handler shuts down.
type sseSession struct {
	responses chan *Response
	done      chan struct{}
	closeOnce sync.Once
}

func newSSESession() *sseSession {
	return &sseSession{
		responses: make(chan *Response, sessionBuffer),
		done:      make(chan struct{}),
	}
}

func (s *sseSession) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// NewSSEHandler creates an SSE handler backed by server.
func NewSSEHandler(server *Server) *SSEHandler {
	return &SSEHandler{server: server}
}

// ServeHTTP routes GET /sse -> handleSSE, POST /message -> handleMessage.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/sse":
		h.handleSSE(w, r)
	case "/message":
		h.handleMessage(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SSEHandler) getSession(sessionID string) (*sseSession, bool) {
	value, ok := h.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	sess, ok := value.(*sseSession)
	return sess, ok
}

// Sessions reports how many SSE streams are open.
func (h *SSEHandler) Sessions() int {
	n := 0
	h.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func writeSSEEvent(w http.ResponseWriter, event string, payload []byte) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// handleSSE opens the stream, announces the message endpoint and forwards
// the session's responses until the client goes away or Close is called.
func (h *SSEHandler) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := uuid.NewString()
	sess := newSSESession()
	h.sessions.Store(sessionID, sess)
	defer h.sessions.Delete(sessionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	if err := writeSSEEvent(w, "endpoint", []byte("/message?sessionId="+sessionID)); err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to write MCP SSE endpoint")
		return
	}
	log.Debug().Str("sessionId", sessionID).Msg("MCP SSE session opened")

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("sessionId", sessionID).Msg("MCP SSE session closed")
			return
		case <-sess.done:
			log.Debug().Str("sessionId", sessionID).Msg("MCP SSE session closed by server")
			return
		case response := <-sess.responses:
			payload, err := json.Marshal(response)
			if err != nil {
				log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to marshal MCP SSE response")
				continue
			}
			if err := writeSSEEvent(w, "message", payload); err != nil {
				log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to write MCP SSE response")
				return
			}
		}
	}
}

// handleMessage decodes a request and queues the response on its session stream.
func (h *SSEHandler) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	sess, ok := h.getSession(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	defer r.Body.Close()
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to decode MCP SSE message")
		return
	}

	response := h.server.handleRequest(r.Context(), &req)
	if response == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	select {
	case <-sess.done:
		http.Error(w, "session closed", http.StatusGone)
		return
	default:
	}

	select {
	case sess.responses <- response:
	default:
		log.Warn().Str("sessionId", sessionID).Msg("Response channel full, dropping response")
	}
	w.WriteHeader(http.StatusAccepted)
}

// Close ends every open stream and forgets its session.
func (h *SSEHandler) Close() {
	h.sessions.Range(func(key, value any) bool {
		if sess, ok := value.(*sseSession); ok {
			sess.close()
		}
		h.sessions.Delete(key)
		return true
	})
}
