package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/brokerdesk/admin-console/internal/errors"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveBackendCall("list_users", "ok", 20*time.Millisecond)
	m.ObserveBackendCall("list_users", "session_expired", 5*time.Millisecond)
	m.LoginAttempt(nil)
	m.LoginAttempt(apperrors.Unauthenticated("Invalid credentials"))
	m.ForcedLogout()
	m.GuardDecision("admin_only", "redirect_super_admin_home")
	m.SessionRestored("logged_in")
	m.Purged(3)
	m.Purged(0)
	m.ObserveHTTP("GET", "GET /users", 200, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("list_users", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("list_users", "session_expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues(ResultSuccess, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues(ResultError, "unauthenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForcedLogouts))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsPurged))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("admin_only", "redirect_super_admin_home")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "GET /users", "200")))

	n, err := testutil.GatherAndCount(reg, "admin_console_backend_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackendCall("x", "ok", time.Second)
		m.LoginAttempt(errors.New("boom"))
		m.ForcedLogout()
		m.GuardDecision("g", "d")
		m.SessionRestored("unknown")
		m.Purged(1)
		m.ObserveHTTP("GET", "", 500, time.Second)
	})
}
