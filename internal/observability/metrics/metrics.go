// Package metrics exposes Prometheus collectors for the auth pipeline and HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/target/creditfeed/internal/observability/errors"
)

// Outcome labels for auth events.
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeThrottled = "throttled"
	OutcomeError     = "error"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	authEvents     *prometheus.CounterVec
	gateRejections *prometheus.CounterVec
	creditsGranted *prometheus.CounterVec
	internalErrors *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, together with Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		authEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditfeed_auth_events_total",
			Help: "Register and login attempts by operation and outcome",
		}, []string{"op", "outcome"}),
		gateRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditfeed_gate_rejections_total",
			Help: "Requests rejected by the auth or role gate, by reason",
		}, []string{"reason"}),
		creditsGranted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditfeed_credits_granted_total",
			Help: "Credits granted by bonus reason",
		}, []string{"reason"}),
		internalErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditfeed_internal_errors_total",
			Help: "Internal failures by operation and error class",
		}, []string{"op", "error_class"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditfeed_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "creditfeed_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry exposes the underlying registry (tests and custom collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// AuthEvent counts a register or login attempt.
func (m *Metrics) AuthEvent(op, outcome string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(op, outcome).Inc()
}

// GateRejection counts a request turned away by a gate.
func (m *Metrics) GateRejection(reason string) {
	if m == nil {
		return
	}
	m.gateRejections.WithLabelValues(reason).Inc()
}

// CreditsGranted adds n to the bonus counter for reason.
func (m *Metrics) CreditsGranted(reason string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.creditsGranted.WithLabelValues(reason).Add(float64(n))
}

// InternalError counts an unexpected failure, labelled by its innermost error type.
func (m *Metrics) InternalError(op string, err error) {
	if m == nil || err == nil {
		return
	}
	m.internalErrors.WithLabelValues(op, obserrors.Classify(err)).Inc()
}

// ObserveHTTP records one served request. route should be the mux pattern, never the raw path.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
