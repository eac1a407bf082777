package rpc

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Routes served by NewHTTPHandler.
const (
	PathMCP     = "/mcp"
	PathHealth  = "/health"
	PathMetrics = "/metrics"
)

// MaxRequestBytes bounds the size of a POSTed message.
const MaxRequestBytes = 4 << 20

// HealthFunc reports whether the backing store is usable. A nil error
// is healthy.
type HealthFunc func(ctx context.Context) error

type httpConfig struct {
	stream     bool
	health     HealthFunc
	metrics    http.Handler
	middleware []mux.MiddlewareFunc
	origins    []string
}

// HTTPOption configures NewHTTPHandler.
type HTTPOption func(*httpConfig)

// WithStreaming answers clients that accept text/event-stream with a
// single SSE frame instead of a JSON body.
func WithStreaming(enabled bool) HTTPOption {
	return func(c *httpConfig) {
		c.stream = enabled
	}
}

// WithHealth sets the probe behind GET /health.
func WithHealth(fn HealthFunc) HTTPOption {
	return func(c *httpConfig) {
		c.health = fn
	}
}

// WithMetricsHandler serves h at GET /metrics.
func WithMetricsHandler(h http.Handler) HTTPOption {
	return func(c *httpConfig) {
		c.metrics = h
	}
}

// WithMiddleware adds router middleware, applied in order.
func WithMiddleware(mw ...mux.MiddlewareFunc) HTTPOption {
	return func(c *httpConfig) {
		c.middleware = append(c.middleware, mw...)
	}
}

// WithAllowedOrigins restricts CORS origins. The default allows any.
func WithAllowedOrigins(origins ...string) HTTPOption {
	return func(c *httpConfig) {
		c.origins = origins
	}
}

// NewHTTPHandler serves s over HTTP.
func NewHTTPHandler(s *Server, opts ...HTTPOption) http.Handler {
	cfg := &httpConfig{stream: true, origins: []string{"*"}}
	for _, opt := range opts {
		opt(cfg)
	}

	router := mux.NewRouter()
	for _, mw := range cfg.middleware {
		router.Use(mw)
	}

	router.HandleFunc(PathMCP, func(w http.ResponseWriter, r *http.Request) {
		serveMessage(w, r, s, cfg.stream)
	}).Methods(http.MethodPost)

	router.HandleFunc(PathHealth, func(w http.ResponseWriter, r *http.Request) {
		serveHealth(w, r, cfg.health)
	}).Methods(http.MethodGet)

	if cfg.metrics != nil {
		router.Handle(PathMetrics, cfg.metrics).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", "Authorization", "Mcp-Session-Id", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	})
	return c.Handler(router)
}

func serveMessage(w http.ResponseWriter, r *http.Request, s *Server, stream bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(nil, CodeParseError, "Parse error: "+err.Error()))
		return
	}
	if len(body) > MaxRequestBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse(nil, CodeInvalidRequest, "request too large"))
		return
	}

	resp := s.HandleMessage(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if stream && acceptsEventStream(r.Header.Get("Accept")) {
		data, err := json.Marshal(resp)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse(resp.ID, CodeInternalError, err.Error()))
			return
		}
		w.Header().Set("Content-Type", ContentTypeEventStream)
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		_ = WriteEvent(w, data)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func serveHealth(w http.ResponseWriter, r *http.Request, health HealthFunc) {
	if health != nil {
		if err := health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// acceptsEventStream reports whether an Accept header lists
// text/event-stream.
func acceptsEventStream(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mt := strings.TrimSpace(part)
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = strings.TrimSpace(mt[:i])
		}
		if strings.EqualFold(mt, ContentTypeEventStream) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
