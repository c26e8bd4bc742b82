// Package mcp provides the MCP (Model Context Protocol) server for hogmind.
package mcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/thebtf/hogmind/internal/metrics"
	"github.com/thebtf/hogmind/internal/privacy"
	"github.com/thebtf/hogmind/internal/tools"
)

// ProtocolVersion is the MCP revision announced on initialize.
const ProtocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// maxLineBytes bounds a single stdio request line.
const maxLineBytes = 10 * 1024 * 1024

// Backend executes tool calls and resource reads. *tools.Dispatcher satisfies it.
type Backend interface {
	Tools() []tools.Tool
	Call(ctx context.Context, name string, args json.RawMessage) (tools.Response, error)
	ReadResource(ctx context.Context, uri string) (any, error)
}

// Server is the MCP server that exposes the analytics tools.
type Server struct {
	stdin   io.Reader
	stdout  io.Writer
	backend Backend
	version string
	writeMu sync.Mutex
}

// NewServer creates a new MCP server reading stdin and writing stdout.
func NewServer(backend Backend, version string) *Server {
	return &Server{
		backend: backend,
		version: version,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}
}

// Request represents a JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC response.
type Response struct {
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	JSONRPC string `json:"jsonrpc"`
}

// Error represents a JSON-RPC error.
type Error struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ToolCallParams represents parameters for tools/call method.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ResourceReadParams represents parameters for resources/read method.
type ResourceReadParams struct {
	URI string `json:"uri"`
}

// Tool represents an MCP tool definition.
type Tool struct {
	InputSchema map[string]any `json:"inputSchema"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
}

// Content is one item of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the tools/call result. The text carries the JSON envelope.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// ResourceContents is one document returned by resources/read.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Run starts the MCP server loop. It returns when stdin is exhausted.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(nil, CodeParseError, "Parse error", err.Error())
			continue
		}

		if resp := s.handleRequest(ctx, &req); resp != nil {
			s.sendResponse(resp)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// handleRequest dispatches the request to the appropriate handler.
// Notifications get no response and nil is returned.
func (s *Server) handleRequest(ctx context.Context, req *Request) *Response {
	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "ping":
		return result(req.ID, map[string]any{})
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "resources/list":
		return result(req.ID, map[string]any{"resources": tools.Resources()})
	case "resources/read":
		return s.handleResourcesRead(ctx, req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, "Method not found", req.Method)
	}
}

// handleInitialize handles the initialize request.
func (s *Server) handleInitialize(req *Request) *Response {
	return result(req.ID, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"logging":   map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "hogmind",
			"version": s.version,
		},
	})
}

// handleToolsList returns the catalog with JSON Schemas derived from the declared fields.
func (s *Server) handleToolsList(req *Request) *Response {
	catalog := s.backend.Tools()
	list := make([]Tool, 0, len(catalog))
	for _, t := range catalog {
		list = append(list, Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema.JSONSchema(),
		})
	}
	return result(req.ID, map[string]any{"tools": list})
}

// handleToolsCall handles tool invocations. Data failures stay inside the
// envelope; only an unknown tool becomes a protocol error.
func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	resp, err := s.backend.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, tools.ErrUnknownTool) {
			return errorResponse(req.ID, CodeMethodNotFound, "Unknown tool: "+params.Name, nil)
		}
		return errorResponse(req.ID, CodeInternalError, "Tool execution failed", privacy.RedactError(err))
	}

	text, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Str("tool", params.Name).Msg("Failed to marshal tool envelope")
		return errorResponse(req.ID, CodeInternalError, "Tool execution failed", "failed to encode result")
	}

	return result(req.ID, ToolResult{
		Content: []Content{{Type: "text", Text: string(text)}},
		IsError: !resp.Success,
	})
}

// handleResourcesRead returns a resource document as indented JSON text.
func (s *Server) handleResourcesRead(ctx context.Context, req *Request) *Response {
	var params ResourceReadParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	doc, err := s.backend.ReadResource(ctx, params.URI)
	metrics.ObserveResourceRead(params.URI, err)
	if err != nil {
		if errors.Is(err, tools.ErrUnknownResource) {
			return errorResponse(req.ID, CodeInvalidParams, "Unknown resource: "+params.URI, nil)
		}
		log.Error().Str("error", privacy.RedactError(err)).Str("uri", params.URI).Msg("Resource read failed")
		return errorResponse(req.ID, CodeInternalError, "Resource read failed", privacy.RedactError(err))
	}

	text, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, "Resource read failed", err.Error())
	}
	return result(req.ID, map[string]any{
		"contents": []ResourceContents{{URI: params.URI, MimeType: "application/json", Text: string(text)}},
	})
}

func result(id any, v any) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Result: v}
}

func errorResponse(id any, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}

// sendResponse sends a JSON-RPC response as one line.
func (s *Server) sendResponse(resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	fmt.Fprintln(s.stdout, string(data))
}

// sendError sends a JSON-RPC error response.
func (s *Server) sendError(id any, code int, message string, data any) {
	s.sendResponse(errorResponse(id, code, message, data))
}
