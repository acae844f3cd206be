// Package metrics holds the console's Prometheus collectors.
// Every method is safe on a nil *Metrics so callers can run without metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	obserrors "github.com/brokerdesk/admin-console/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

const namespace = "admin_console"

// Metrics groups every collector the console records.
type Metrics struct {
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	Logins          *prometheus.CounterVec
	ForcedLogouts   prometheus.Counter
	SessionRestores *prometheus.CounterVec
	SessionsPurged  prometheus.Counter
	GuardDecisions  *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New creates and registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BackendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "REST backend calls by operation and result code",
		}, []string{"op", "result"}),
		BackendDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "REST backend call latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result and error class",
		}, []string{"result", "error_class"}),
		ForcedLogouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_logouts_total",
			Help:      "Sessions ended because the backend rejected the bearer token",
		}),
		SessionRestores: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_restores_total",
			Help:      "Per-request session restores by resulting auth state",
		}, []string{"state"}),
		SessionsPurged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_purged_total",
			Help:      "Expired or corrupt session records removed by purges",
		}),
		GuardDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard outcomes",
		}, []string{"guard", "decision"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Served HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveBackendCall records one REST call.
func (m *Metrics) ObserveBackendCall(op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(op, result).Inc()
	m.BackendDuration.WithLabelValues(op).Observe(d.Seconds())
}

// LoginAttempt records a login outcome. A nil err is a success.
func (m *Metrics) LoginAttempt(err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.Logins.WithLabelValues(ResultSuccess, "").Inc()
		return
	}
	m.Logins.WithLabelValues(ResultError, obserrors.Classify(err)).Inc()
}

// ForcedLogout records a backend-initiated logout.
func (m *Metrics) ForcedLogout() {
	if m == nil {
		return
	}
	m.ForcedLogouts.Inc()
}

// SessionRestored records the auth state a request resolved to.
func (m *Metrics) SessionRestored(state string) {
	if m == nil {
		return
	}
	m.SessionRestores.WithLabelValues(state).Inc()
}

// Purged records n removed session records.
func (m *Metrics) Purged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsPurged.Add(float64(n))
}

// GuardDecision records one guard outcome.
func (m *Metrics) GuardDecision(guard, decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(guard, decision).Inc()
}

// ObserveHTTP records one served request. route is the mux pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
