// Package metrics exposes Prometheus instruments for tool calls, relay
// requests and the HTTP transport.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justapithecus/s3lake/internal/logging"
)

const namespace = "s3lake"

// Recorder holds the process instruments.
type Recorder struct {
	toolCalls     *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
	relayRequests *prometheus.CounterVec
	relayDuration *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	gatherer      prometheus.Gatherer
}

// New creates a Recorder and registers its instruments with reg. A nil
// reg uses a fresh registry.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Recorder{
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tool",
				Name:      "calls_total",
				Help:      "Tool calls by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "tool",
				Name:      "call_duration_seconds",
				Help:      "Tool call duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		relayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "requests_total",
				Help:      "Relay requests to the hosted server by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		relayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "request_duration_seconds",
				Help:      "Relay request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		r.toolCalls, r.toolDuration,
		r.relayRequests, r.relayDuration,
		r.httpRequests, r.httpDuration,
	)
	return r
}

// outcome is "success" for an empty kind, else the kind.
func outcome(kind string) string {
	if kind == "" {
		return "success"
	}
	return kind
}

// ObserveTool records one tool call. kind is the error kind, or "" for a
// success.
func (r *Recorder) ObserveTool(tool, kind string, elapsed time.Duration) {
	r.toolCalls.WithLabelValues(tool, outcome(kind)).Inc()
	r.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveRelay records one relay request. kind is the error kind, or ""
// for a success.
func (r *Recorder) ObserveRelay(method, kind string, elapsed time.Duration) {
	r.relayRequests.WithLabelValues(method, outcome(kind)).Inc()
	r.relayDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RecordHTTPRequest records one HTTP request.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	statusLabel := strconv.Itoa(status)
	r.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	r.httpDuration.WithLabelValues(method, path, statusLabel).Observe(elapsed.Seconds())
}

// Middleware records every request routed through it, labelled by the
// matched route template.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := logging.NewStatusRecorder(w)
		next.ServeHTTP(rec, req)

		path := req.URL.Path
		if route := mux.CurrentRoute(req); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		r.RecordHTTPRequest(req.Method, path, rec.Status, time.Since(start))
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
