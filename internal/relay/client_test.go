package relay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justapithecus/s3lake/internal/rpc"
)

const toolsPayload = `{"jsonrpc":"2.0","id":"list-tools","result":{"tools":[` +
	`{"name":"list_s3_buckets","description":"List buckets","inputSchema":{"type":"object","properties":{}}}]}}`

// hostedServer answers every request with body using contentType and
// records what it received.
type hostedServer struct {
	*httptest.Server
	hits     atomic.Int32
	lastReq  atomic.Pointer[http.Request]
	lastBody atomic.Pointer[string]
}

func newHostedServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body string)) *hostedServer {
	t.Helper()
	hs := &hostedServer{}
	hs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hs.hits.Add(1)
		data, _ := io.ReadAll(r.Body)
		body := string(data)
		hs.lastReq.Store(r)
		hs.lastBody.Store(&body)
		handler(w, r, body)
	}))
	t.Cleanup(hs.Close)
	return hs
}

func respondJSON(payload string) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.Header().Set("Content-Type", rpc.ContentTypeJSON)
		_, _ = io.WriteString(w, payload)
	}
}

func respondSSE(payload string) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, _ *http.Request, _ string) {
		w.Header().Set("Content-Type", rpc.ContentTypeEventStream)
		_ = rpc.WriteEvent(w, []byte(payload))
	}
}

func TestClient_ListTools_JSONAndSSEAgree(t *testing.T) {
	plain := newHostedServer(t, respondJSON(toolsPayload))
	sse := newHostedServer(t, respondSSE(toolsPayload))

	fromJSON, err := New(plain.URL, Bearer("tok")).ListTools(context.Background())
	require.NoError(t, err)
	fromSSE, err := New(sse.URL, Bearer("tok")).ListTools(context.Background())
	require.NoError(t, err)

	require.Len(t, fromJSON, 1)
	assert.Equal(t, fromJSON, fromSSE)
	assert.Equal(t, "list_s3_buckets", fromJSON[0].Name)
}

func TestClient_ListTools_Memoized(t *testing.T) {
	hs := newHostedServer(t, respondSSE(toolsPayload))
	c := New(hs.URL, Bearer("tok"))

	for i := 0; i < 3; i++ {
		tools, err := c.ListTools(context.Background())
		require.NoError(t, err)
		require.Len(t, tools, 1)
	}
	assert.Equal(t, int32(1), hs.hits.Load())

	body := *hs.lastBody.Load()
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"list-tools","method":"tools/list","params":{}}`, body)
}

func TestClient_ListTools_FailureNotMemoized(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	hs := newHostedServer(t, func(w http.ResponseWriter, r *http.Request, body string) {
		if fail.Load() {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		respondJSON(toolsPayload)(w, r, body)
	})
	c := New(hs.URL, Bearer("tok"))

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tools)
	assert.NotNil(t, tools)

	fail.Store(false)
	tools, err = c.ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 1)
	assert.Equal(t, int32(2), hs.hits.Load())
}

func TestClient_ListTools_UnexpectedShape(t *testing.T) {
	hs := newHostedServer(t, respondJSON(`{"jsonrpc":"2.0","id":"list-tools","result":{"items":[]}}`))

	tools, err := New(hs.URL, nil).ListTools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func TestClient_CallTool(t *testing.T) {
	envelope := `{\"status\":\"success\",\"count\":0}`
	hs := newHostedServer(t, respondSSE(`{"jsonrpc":"2.0","id":"call-list_s3_buckets","result":{"content":[`+
		`{"type":"text","text":"`+envelope+`"},{"type":"image","data":"x"}],"isError":false}}`))
	c := New(hs.URL, Bearer("tok"))

	result, err := c.CallTool(context.Background(), "list_s3_buckets", nil)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.False(t, result.IsError)
	assert.Equal(t, `{"status":"success","count":0}`, result.Text())

	body := *hs.lastBody.Load()
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"call-list_s3_buckets","method":"tools/call",`+
		`"params":{"name":"list_s3_buckets","arguments":{}}}`, body)

	req := hs.lastReq.Load()
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json, text/event-stream", req.Header.Get("Accept"))
}

func TestClient_CallTool_JSONMentioningEventText(t *testing.T) {
	envelope := `{\"status\":\"success\",\"data\":[{\"log\":\"event: message received\"}]}`
	hs := newHostedServer(t, respondJSON(`{"jsonrpc":"2.0","id":"call-read_csv_from_s3","result":{"content":[`+
		`{"type":"text","text":"`+envelope+`"}],"isError":false}}`))

	result, err := New(hs.URL, nil).CallTool(context.Background(), "read_csv_from_s3", nil)
	require.NoError(t, err)
	assert.False(t, result.IsError, result.Text())
	assert.Equal(t, `{"status":"success","data":[{"log":"event: message received"}]}`, result.Text())
}

func TestClient_CallTool_NeverMemoized(t *testing.T) {
	hs := newHostedServer(t, respondJSON(`{"jsonrpc":"2.0","id":"call-x","result":{"content":[]}}`))
	c := New(hs.URL, nil)

	for i := 0; i < 2; i++ {
		_, err := c.CallTool(context.Background(), "x", []byte(`{"a":1}`))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hs.hits.Load())
}

func TestClient_CallTool_RPCError(t *testing.T) {
	hs := newHostedServer(t, respondJSON(`{"jsonrpc":"2.0","id":"call-x","error":{"code":-32602,"message":"Unknown tool: x"}}`))

	result, err := New(hs.URL, nil).CallTool(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, `Tool call failed: {"code":-32602,"message":"Unknown tool: x"}`, result.Text())
}

func TestClient_CallTool_ResultWithoutContent(t *testing.T) {
	hs := newHostedServer(t, respondJSON(`{"jsonrpc":"2.0","id":"call-x","result":{"value":1}}`))

	result, err := New(hs.URL, nil).CallTool(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"value\": 1\n}", result.Text())
}

func TestClient_CallTool_TransportFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler func(http.ResponseWriter, *http.Request, string)
		want    string
	}{
		{
			name: "http status",
			handler: func(w http.ResponseWriter, _ *http.Request, _ string) {
				http.Error(w, "denied", http.StatusForbidden)
			},
			want: "Error calling tool x: HTTP 403: denied",
		},
		{
			name:    "not json",
			handler: respondJSON("<html>"),
			want:    "Error calling tool x: invalid response",
		},
		{
			name: "sse without data",
			handler: func(w http.ResponseWriter, _ *http.Request, _ string) {
				w.Header().Set("Content-Type", rpc.ContentTypeEventStream)
				_, _ = io.WriteString(w, "event: message\n\n")
			},
			want: "Error calling tool x: rpc: event stream has no data line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHostedServer(t, tt.handler)
			result, err := New(hs.URL, nil).CallTool(context.Background(), "x", nil)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.True(t, strings.HasPrefix(result.Text(), tt.want), result.Text())
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	hs := newHostedServer(t, func(w http.ResponseWriter, r *http.Request, _ string) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	result, err := New(hs.URL, nil, WithTimeout(50*time.Millisecond)).CallTool(context.Background(), "slow", nil)
	require.NoError(t, err)
	assert.Equal(t, "Error calling tool slow: request timed out after 50ms", result.Text())
}

func TestClient_Unreachable(t *testing.T) {
	result, err := New("http://127.0.0.1:1/invocations", nil).CallTool(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.True(t, strings.HasPrefix(result.Text(), "Error calling tool x: "))
}

type recordingObserver struct {
	methods []string
	kinds   []string
}

func (o *recordingObserver) ObserveRelay(method, kind string, _ time.Duration) {
	o.methods = append(o.methods, method)
	o.kinds = append(o.kinds, kind)
}

func TestClient_Observer(t *testing.T) {
	hs := newHostedServer(t, respondJSON(toolsPayload))
	obs := &recordingObserver{}

	_, _ = New(hs.URL, nil, WithObserver(obs)).ListTools(context.Background())
	_, _ = New("http://127.0.0.1:1", nil, WithObserver(obs)).CallTool(context.Background(), "x", nil)

	assert.Equal(t, []string{rpc.MethodToolsList, rpc.MethodToolsCall}, obs.methods)
	assert.Equal(t, []string{"", "transport"}, obs.kinds)
}

func TestSigV4_Authorize(t *testing.T) {
	hs := newHostedServer(t, respondJSON(toolsPayload))
	creds := credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "session")
	signer := NewSigV4(creds, "eu-west-1")
	signer.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	_, err := New(hs.URL, signer).ListTools(context.Background())
	require.NoError(t, err)

	req := hs.lastReq.Load()
	auth := req.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth,
		"AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20250601/eu-west-1/bedrock-agentcore/aws4_request"), auth)
	assert.Contains(t, auth, "SignedHeaders=")
	assert.Equal(t, "20250601T120000Z", req.Header.Get("X-Amz-Date"))
	assert.Equal(t, "session", req.Header.Get("X-Amz-Security-Token"))
}

func TestSigV4_NoCredentials(t *testing.T) {
	result, err := New("http://127.0.0.1:1", NewSigV4(nil, "us-east-1")).CallTool(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "Error calling tool x: authorize request: no AWS credentials configured", result.Text())
}

func TestBearer_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Error(t, Bearer("").Authorize(context.Background(), req, nil))
}
