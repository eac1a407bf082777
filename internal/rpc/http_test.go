package rpc

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, h http.Handler, body, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, PathMCP, strings.NewReader(body))
	req.Header.Set("Content-Type", ContentTypeJSON)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const listRequest = `{"jsonrpc":"2.0","id":"list-tools","method":"tools/list"}`

func TestHTTPHandler_JSON(t *testing.T) {
	s, _ := newTestServer()
	h := NewHTTPHandler(s)

	rec := post(t, h, listRequest, ContentTypeJSON)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeJSON, rec.Header().Get("Content-Type"))
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Error)
}

func TestHTTPHandler_EventStream(t *testing.T) {
	s, _ := newTestServer()
	h := NewHTTPHandler(s)

	rec := post(t, h, listRequest, "application/json, text/event-stream")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeEventStream, rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), EventMarker))

	data, err := Unwrap(rec.Header().Get("Content-Type"), rec.Body.Bytes())
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, `"list-tools"`, string(resp.ID))
}

func TestHTTPHandler_StreamingDisabled(t *testing.T) {
	s, _ := newTestServer()
	h := NewHTTPHandler(s, WithStreaming(false))

	rec := post(t, h, listRequest, "text/event-stream")

	assert.Equal(t, ContentTypeJSON, rec.Header().Get("Content-Type"))
}

func TestHTTPHandler_Notification(t *testing.T) {
	s, _ := newTestServer()
	h := NewHTTPHandler(s)

	rec := post(t, h, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHTTPHandler_TooLarge(t *testing.T) {
	s, _ := newTestServer()
	h := NewHTTPHandler(s)

	rec := post(t, h, strings.Repeat(" ", MaxRequestBytes+1), "")

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHTTPHandler_Health(t *testing.T) {
	s, _ := newTestServer()

	healthy := NewHTTPHandler(s)
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathHealth, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	unhealthy := NewHTTPHandler(s, WithHealth(func(context.Context) error { return errors.New("no creds") }))
	rec = httptest.NewRecorder()
	unhealthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathHealth, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no creds")
}

func TestHTTPHandler_MetricsAndMiddleware(t *testing.T) {
	s, _ := newTestServer()
	var seen []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
	h := NewHTTPHandler(s,
		WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		})),
		WithMiddleware(mw),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathMetrics, nil))
	assert.Equal(t, "metrics", rec.Body.String())
	assert.Equal(t, []string{PathMetrics}, seen)
}

func TestHTTPHandler_CORSPreflight(t *testing.T) {
	s, _ := newTestServer()
	h := NewHTTPHandler(s)

	req := httptest.NewRequest(http.MethodOptions, PathMCP, nil)
	req.Header.Set("Origin", "https://agent.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeStdio(t *testing.T) {
	s, _ := newTestServer()
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n")
	var out bytes.Buffer

	require.NoError(t, ServeStdio(context.Background(), s, strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":1`)
	assert.Contains(t, lines[1], `"tools"`)
}
