package mcp

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// StreamableHandler implements the MCP Streamable HTTP transport: a single
// POST endpoint that answers each JSON-RPC request inline.
type StreamableHandler struct {
	server *Server
}

// NewStreamableHandler creates a new Streamable HTTP handler.
func NewStreamableHandler(server *Server) *StreamableHandler {
	return &StreamableHandler{server: server}
}

// ServeHTTP handles POST requests with JSON-RPC MCP messages.
func (h *StreamableHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer r.Body.Close()

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Failed to decode Streamable HTTP MCP request")
		writeRPC(w, errorResponse(nil, CodeParseError, "Parse error", nil))
		return
	}

	response := h.server.handleRequest(r.Context(), &req)
	if response == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeRPC(w, response)
}

func writeRPC(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("Failed to encode Streamable HTTP MCP response")
	}
}
