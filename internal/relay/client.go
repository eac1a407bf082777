package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/justapithecus/s3lake/internal/rpc"
	"github.com/justapithecus/s3lake/lake"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout bounds one outbound request.
const DefaultTimeout = 120 * time.Second

// Request ids used on the wire.
const (
	listToolsID    = "list-tools"
	callToolPrefix = "call-"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 64 << 20

// Observer receives one observation per outbound request. kind is empty
// for a success.
type Observer interface {
	ObserveRelay(method, kind string, elapsed time.Duration)
}

// Client relays tool calls to a hosted catalog.
type Client struct {
	endpoint string
	auth     Authorizer
	http     *http.Client
	timeout  time.Duration
	logger   zerolog.Logger
	observer Observer

	// tools is written once after the first successful listing. Concurrent
	// first listings may both write; the values are equivalent.
	tools atomic.Pointer[[]rpc.Tool]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request wall-clock timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the relay logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver records every outbound request.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a client posting to endpoint.
func New(endpoint string, auth Authorizer, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		auth:     auth,
		http:     &http.Client{},
		timeout:  DefaultTimeout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the invocation URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ensure Client implements rpc.Backend
var _ rpc.Backend = (*Client)(nil)

// ListTools returns the hosted tool list, fetching it on first use. A
// failed listing is logged and yields an empty list; it is not memoized.
func (c *Client) ListTools(ctx context.Context) ([]rpc.Tool, error) {
	if cached := c.tools.Load(); cached != nil {
		return *cached, nil
	}

	tools, err := c.fetchTools(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("error listing tools")
		return []rpc.Tool{}, nil
	}
	c.tools.Store(&tools)
	return tools, nil
}

func (c *Client) fetchTools(ctx context.Context) ([]rpc.Tool, error) {
	req, err := rpc.NewRequest(listToolsID, rpc.MethodToolsList, struct{}{})
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil || len(resp.Result) == 0 {
		return nil, lake.TransportError(fmt.Sprintf("unexpected response format: %s", describe(resp)), nil)
	}

	var result struct {
		Tools *[]rpc.Tool `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil || result.Tools == nil {
		return nil, lake.TransportError(fmt.Sprintf("unexpected response format: %s", resp.Result), err)
	}
	return *result.Tools, nil
}

// CallTool forwards one call. It never returns an error: transport
// failures and remote RPC errors come back as error text content.
func (c *Client) CallTool(ctx context.Context, name string, args []byte) (rpc.CallResult, error) {
	if len(bytes.TrimSpace(args)) == 0 {
		args = []byte("{}")
	}
	req, err := rpc.NewRequest(callToolPrefix+name, rpc.MethodToolsCall, rpc.CallParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return callFailed(name, err), nil
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		c.logger.Error().Str("tool", name).Err(err).Msg("error calling tool")
		return callFailed(name, err), nil
	}

	if len(resp.Result) == 0 {
		return rpc.TextResult("Tool call failed: "+describe(resp), true), nil
	}

	var result struct {
		Content *[]rpc.Content `json:"content"`
		IsError bool           `json:"isError"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return callFailed(name, lake.TransportError("unexpected result shape", err)), nil
	}
	if result.Content == nil {
		return rpc.TextResult(lake.IndentJSON(resp.Result), result.IsError), nil
	}

	out := rpc.CallResult{Content: []rpc.Content{}, IsError: result.IsError}
	for _, item := range *result.Content {
		if item.Type == "text" {
			out.Content = append(out.Content, item)
		}
	}
	return out, nil
}

// Do posts req and returns the decoded response. Every error is a
// lake.KindTransport error.
func (c *Client) Do(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
	start := time.Now()
	resp, err := c.do(ctx, req)
	if c.observer != nil {
		kind := ""
		if err != nil {
			kind = lake.KindTransport.String()
		}
		c.observer.ObserveRelay(req.Method, kind, time.Since(start))
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, lake.TransportError("encode request: "+err.Error(), err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, lake.TransportError("build request: "+err.Error(), err)
	}
	httpReq.Header.Set("Content-Type", rpc.ContentTypeJSON)
	httpReq.Header.Set("Accept", rpc.ContentTypeJSON+", "+rpc.ContentTypeEventStream)

	if c.auth != nil {
		if err := c.auth.Authorize(ctx, httpReq, body); err != nil {
			return nil, lake.TransportError("authorize request: "+err.Error(), err)
		}
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, lake.TransportError(fmt.Sprintf("request timed out after %s", c.timeout), err)
		}
		return nil, lake.TransportError(err.Error(), err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, lake.TransportError("read response: "+err.Error(), err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, lake.TransportError(fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode, snippet(data)), nil)
	}

	payload, err := rpc.Unwrap(httpResp.Header.Get("Content-Type"), data)
	if err != nil {
		return nil, lake.TransportError(err.Error(), err)
	}

	var resp rpc.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, lake.TransportError("invalid response: "+err.Error(), err)
	}
	return &resp, nil
}

func callFailed(name string, err error) rpc.CallResult {
	return rpc.TextResult(fmt.Sprintf("Error calling tool %s: %s", name, lake.Classify(err).Message), true)
}

// describe renders the error member of resp, or "Unknown error".
func describe(resp *rpc.Response) string {
	if resp.Error == nil {
		return "Unknown error"
	}
	data, err := json.Marshal(resp.Error)
	if err != nil {
		return resp.Error.Message
	}
	return string(data)
}

func snippet(body []byte) string {
	const max = 512
	body = bytes.TrimSpace(body)
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
