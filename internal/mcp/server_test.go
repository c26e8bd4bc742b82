package mcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/thebtf/hogmind/internal/tools"
)

// fakeBackend answers tools/call and resources/read from canned values.
type fakeBackend struct {
	callErr  error
	readErr  error
	response tools.Response
	doc      any

	mu    sync.Mutex
	calls []string
	args  []string
}

func (f *fakeBackend) Tools() []tools.Tool {
	return []tools.Tool{
		{
			Name:        "get_events",
			Description: "Get events",
			Schema: tools.Schema{Fields: []tools.Field{
				{Name: "limit", Type: tools.TypeInteger, Default: 100, Description: "Max events"},
			}},
		},
		{
			Name:        "analyze_user_journey",
			Description: "Analyze a journey",
			Schema: tools.Schema{Fields: []tools.Field{
				{Name: "distinct_id", Type: tools.TypeString, Required: true, Description: "User id"},
			}},
		},
	}
}

func (f *fakeBackend) Call(_ context.Context, name string, args json.RawMessage) (tools.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.args = append(f.args, string(args))
	f.mu.Unlock()
	if name == "missing" {
		return tools.Response{}, fmt.Errorf("%w: %s", tools.ErrUnknownTool, name)
	}
	if f.callErr != nil {
		return tools.Response{}, f.callErr
	}
	return f.response, nil
}

func (f *fakeBackend) ReadResource(_ context.Context, uri string) (any, error) {
	if uri != tools.RecentEventsURI {
		return nil, fmt.Errorf("%w: %s", tools.ErrUnknownResource, uri)
	}
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.doc, nil
}

// ServerSuite drives the stdio server with canned input.
type ServerSuite struct {
	suite.Suite
	backend *fakeBackend
	server  *Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.backend = &fakeBackend{response: tools.OK([]string{"a"}, "Retrieved 1 events")}
	s.server = NewServer(s.backend, "1.2.3")
}

// run feeds lines to the server and returns the decoded responses.
func (s *ServerSuite) run(lines ...string) []Response {
	var out bytes.Buffer
	s.server.stdin = strings.NewReader(strings.Join(lines, "\n") + "\n")
	s.server.stdout = &out
	s.Require().NoError(s.server.Run(context.Background()))

	var responses []Response
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp Response
		s.Require().NoError(json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func (s *ServerSuite) one(line string) Response {
	responses := s.run(line)
	s.Require().Len(responses, 1)
	return responses[0]
}

func resultMap(t require.TestingT, resp Response) map[string]any {
	m, ok := resp.Result.(map[string]any)
	require.True(t, ok, "result is %T", resp.Result)
	return m
}

func (s *ServerSuite) TestInitialize() {
	resp := s.one(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	s.Nil(resp.Error)
	s.Equal("2.0", resp.JSONRPC)

	res := resultMap(s.T(), resp)
	s.Equal(ProtocolVersion, res["protocolVersion"])
	caps := res["capabilities"].(map[string]any)
	s.Contains(caps, "tools")
	s.Contains(caps, "resources")
	s.Contains(caps, "logging")
	info := res["serverInfo"].(map[string]any)
	s.Equal("hogmind", info["name"])
	s.Equal("1.2.3", info["version"])
}

func (s *ServerSuite) TestPing() {
	resp := s.one(`{"jsonrpc":"2.0","id":"p","method":"ping"}`)
	s.Nil(resp.Error)
	s.Equal("p", resp.ID)
	s.Empty(resultMap(s.T(), resp))
}

func (s *ServerSuite) TestNotificationsGetNoResponse() {
	responses := s.run(
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	s.Require().Len(responses, 1)
	s.EqualValues(2, responses[0].ID)
}

func (s *ServerSuite) TestUnknownMethod() {
	resp := s.one(`{"jsonrpc":"2.0","id":3,"method":"prompts/list"}`)
	s.Require().NotNil(resp.Error)
	s.Equal(CodeMethodNotFound, resp.Error.Code)
	s.Equal("prompts/list", resp.Error.Data)
}

func (s *ServerSuite) TestParseErrorThenContinue() {
	responses := s.run(`{not json`, ``, `{"jsonrpc":"2.0","id":4,"method":"ping"}`)
	s.Require().Len(responses, 2)
	s.Require().NotNil(responses[0].Error)
	s.Equal(CodeParseError, responses[0].Error.Code)
	s.Nil(responses[0].ID)
	s.Nil(responses[1].Error)
}

func (s *ServerSuite) TestToolsList() {
	resp := s.one(`{"jsonrpc":"2.0","id":5,"method":"tools/list"}`)
	list := resultMap(s.T(), resp)["tools"].([]any)
	s.Require().Len(list, 2)

	first := list[0].(map[string]any)
	s.Equal("get_events", first["name"])
	schema := first["inputSchema"].(map[string]any)
	s.Equal("object", schema["type"])
	s.Contains(schema["properties"], "limit")

	second := list[1].(map[string]any)
	required := second["inputSchema"].(map[string]any)["required"].([]any)
	s.Equal([]any{"distinct_id"}, required)
}

func (s *ServerSuite) TestToolsCall_WrapsEnvelope() {
	resp := s.one(`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"get_events","arguments":{"limit":5}}}`)
	s.Nil(resp.Error)
	s.Equal([]string{"get_events"}, s.backend.calls)
	s.JSONEq(`{"limit":5}`, s.backend.args[0])

	var result ToolResult
	raw, err := json.Marshal(resp.Result)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(raw, &result))
	s.False(result.IsError)
	s.Require().Len(result.Content, 1)
	s.Equal("text", result.Content[0].Type)
	s.JSONEq(`{"success":true,"data":["a"],"message":"Retrieved 1 events"}`, result.Content[0].Text)
}

func (s *ServerSuite) TestToolsCall_FailedEnvelopeSetsIsError() {
	s.backend.response = tools.Fail(errors.New("failed to fetch events: boom"))
	resp := s.one(`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"get_events"}}`)
	s.Nil(resp.Error)

	res := resultMap(s.T(), resp)
	s.Equal(true, res["isError"])
	text := res["content"].([]any)[0].(map[string]any)["text"].(string)
	s.JSONEq(`{"success":false,"error":"failed to fetch events: boom"}`, text)
}

func (s *ServerSuite) TestToolsCall_UnknownTool() {
	resp := s.one(`{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"missing"}}`)
	s.Require().NotNil(resp.Error)
	s.Equal(CodeMethodNotFound, resp.Error.Code)
	s.Equal("Unknown tool: missing", resp.Error.Message)
}

func (s *ServerSuite) TestToolsCall_InvalidParams() {
	resp := s.one(`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":"nope"}`)
	s.Require().NotNil(resp.Error)
	s.Equal(CodeInvalidParams, resp.Error.Code)
	s.Empty(s.backend.calls)
}

func (s *ServerSuite) TestToolsCall_BackendErrorIsRedacted() {
	s.backend.callErr = errors.New("upstream said Bearer phx_abcdefghijklmnop")
	resp := s.one(`{"jsonrpc":"2.0","id":10,"method":"tools/call","params":{"name":"get_events"}}`)
	s.Require().NotNil(resp.Error)
	s.Equal(CodeInternalError, resp.Error.Code)
	s.NotContains(fmt.Sprint(resp.Error.Data), "phx_abcdefghijklmnop")
}

func (s *ServerSuite) TestResourcesList() {
	resp := s.one(`{"jsonrpc":"2.0","id":11,"method":"resources/list"}`)
	list := resultMap(s.T(), resp)["resources"].([]any)
	s.Require().Len(list, 2)
	s.Equal(tools.RecentEventsURI, list[0].(map[string]any)["uri"])
	s.Equal(tools.DashboardInsightsURI, list[1].(map[string]any)["uri"])
}

func (s *ServerSuite) TestResourcesRead() {
	s.backend.doc = map[string]any{"events": []any{}}
	resp := s.one(`{"jsonrpc":"2.0","id":12,"method":"resources/read","params":{"uri":"posthog://events/recent"}}`)
	s.Nil(resp.Error)

	contents := resultMap(s.T(), resp)["contents"].([]any)
	s.Require().Len(contents, 1)
	doc := contents[0].(map[string]any)
	s.Equal(tools.RecentEventsURI, doc["uri"])
	s.Equal("application/json", doc["mimeType"])
	s.JSONEq(`{"events":[]}`, doc["text"].(string))
}

func (s *ServerSuite) TestResourcesRead_Errors() {
	resp := s.one(`{"jsonrpc":"2.0","id":13,"method":"resources/read","params":{"uri":"posthog://nope"}}`)
	s.Require().NotNil(resp.Error)
	s.Equal(CodeInvalidParams, resp.Error.Code)
	s.Equal("Unknown resource: posthog://nope", resp.Error.Message)

	s.backend.readErr = errors.New("failed to fetch events: timeout")
	resp = s.one(`{"jsonrpc":"2.0","id":14,"method":"resources/read","params":{"uri":"posthog://events/recent"}}`)
	s.Require().NotNil(resp.Error)
	s.Equal(CodeInternalError, resp.Error.Code)
}

func TestRun_OversizedLineFails(t *testing.T) {
	server := NewServer(&fakeBackend{}, "dev")
	server.stdin = strings.NewReader(strings.Repeat("x", maxLineBytes+1))
	server.stdout = &bytes.Buffer{}
	err := server.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanner error")
}

func TestResponseIDTypes(t *testing.T) {
	tests := []struct {
		id   any
		want string
	}{
		{id: float64(1), want: `"id":1`},
		{id: "abc", want: `"id":"abc"`},
		{id: nil, want: `"id":null`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			data, err := json.Marshal(result(tt.id, map[string]any{}))
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.want)
		})
	}
}
