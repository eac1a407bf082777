package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justapithecus/s3lake/lake"
)

type fakeBackend struct {
	tools    []Tool
	listErr  error
	calls    []string
	lastArgs string
}

func (f *fakeBackend) ListTools(ctx context.Context) ([]Tool, error) {
	return f.tools, f.listErr
}

func (f *fakeBackend) CallTool(ctx context.Context, name string, args []byte) (CallResult, error) {
	f.calls = append(f.calls, name)
	f.lastArgs = string(args)
	switch name {
	case "echo":
		return TextResult(`{"status":"success"}`, false), nil
	case "broken":
		return TextResult(`{"status":"error","message":"nope"}`, true), nil
	case "bad_args":
		return CallResult{}, &lake.ArgumentError{Field: "arguments", Message: "must be a JSON object"}
	case "crash":
		return CallResult{}, errors.New("backend down")
	default:
		return CallResult{}, ErrUnknownTool
	}
}

func newTestServer() (*Server, *fakeBackend) {
	b := &fakeBackend{tools: []Tool{{Name: "echo", InputSchema: map[string]any{"type": "object"}}}}
	return NewServer(b, WithServerInfo("test", "1.0")), b
}

func decodeResult(t *testing.T, resp *Response, v any) {
	t.Helper()
	require.NotNil(t, resp)
	require.Nil(t, resp.Error, "unexpected rpc error")
	require.NoError(t, json.Unmarshal(resp.Result, v))
}

func TestServer_Initialize(t *testing.T) {
	s, _ := newTestServer()

	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`))

	var result InitializeResult
	decodeResult(t, resp, &result)
	assert.Equal(t, ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "test", result.ServerInfo.Name)
	assert.Contains(t, result.Capabilities, "tools")
	assert.Equal(t, "1", string(resp.ID))
}

func TestServer_ToolsList(t *testing.T) {
	s, _ := newTestServer()

	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":"list-tools","method":"tools/list"}`))

	var result ListResult
	decodeResult(t, resp, &result)
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "echo", result.Tools[0].Name)
	assert.Equal(t, `"list-tools"`, string(resp.ID))
}

func TestServer_ToolsList_NilBecomesEmpty(t *testing.T) {
	s := NewServer(&fakeBackend{})

	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	require.NotNil(t, resp)
	assert.JSONEq(t, `{"tools":[]}`, string(resp.Result))
}

func TestServer_ToolsCall(t *testing.T) {
	s, b := newTestServer()

	resp := s.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":"call-echo","method":"tools/call","params":{"name":"echo","arguments":{"x":1}}}`))

	var result CallResult
	decodeResult(t, resp, &result)
	assert.False(t, result.IsError)
	assert.Equal(t, `{"status":"success"}`, result.Text())
	assert.Equal(t, []string{"echo"}, b.calls)
	assert.JSONEq(t, `{"x":1}`, b.lastArgs)
}

func TestServer_ToolsCall_ErrorEnvelope(t *testing.T) {
	s, _ := newTestServer()

	resp := s.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"broken"}}`))

	var result CallResult
	decodeResult(t, resp, &result)
	assert.True(t, result.IsError)
}

func TestServer_Errors(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		code int
	}{
		{"parse error", `{"jsonrpc":`, CodeParseError},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, CodeMethodNotFound},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`, CodeInvalidRequest},
		{"missing params", `{"jsonrpc":"2.0","id":1,"method":"tools/call"}`, CodeInvalidParams},
		{"missing name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`, CodeInvalidParams},
		{"unknown tool", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope"}}`, CodeInvalidParams},
		{"bad arguments", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"bad_args","arguments":[1]}}`, CodeInvalidParams},
		{"backend failure", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"crash"}}`, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer()
			resp := s.HandleMessage(context.Background(), []byte(tt.msg))
			require.NotNil(t, resp)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Empty(t, resp.Result)
		})
	}
}

func TestServer_ParseErrorHasNullID(t *testing.T) {
	s, _ := newTestServer()

	resp := s.HandleMessage(context.Background(), []byte(`not json`))

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":null`)
}

func TestServer_Notifications(t *testing.T) {
	s, b := newTestServer()

	assert.Nil(t, s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	assert.Nil(t, s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"unknown/thing"}`)))
	assert.Nil(t, s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":null,"method":"tools/call","params":{"name":"echo"}}`)))
	assert.Equal(t, []string{"echo"}, b.calls)
}

func TestNewRequestEcho(t *testing.T) {
	req, err := NewRequest("call-echo", MethodToolsCall, CallParams{Name: "echo", Arguments: []byte(`{"a":1}`)})
	require.NoError(t, err)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"call-echo","method":"tools/call","params":{"name":"echo","arguments":{"a":1}}}`, string(data))
	assert.False(t, req.IsNotification())
}
