package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics is valid
// and turns every recording method into a no-op, so components can take an
// optional metrics dependency without nil checks at every call site.
type Metrics struct {
	SessionsCreated      prometheus.Counter
	SessionsRevoked      prometheus.Counter
	SessionsPurged       prometheus.Counter
	ActiveSessions       prometheus.Gauge
	TokenRefreshes       prometheus.Counter
	TokenRefreshFailures prometheus.Counter
	ReauthBlocked        prometheus.Counter
	AsanaRequests        *prometheus.CounterVec
}

// New registers all gateway collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "asana_mcp_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		SessionsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "asana_mcp_sessions_revoked_total",
			Help: "Total number of sessions revoked, explicitly or by replacement",
		}),
		SessionsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "asana_mcp_sessions_purged_total",
			Help: "Total number of stale sessions purged",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "asana_mcp_sessions_tracked",
			Help: "Current number of sessions held in the store",
		}),
		TokenRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "asana_mcp_token_refreshes_total",
			Help: "Total number of successful OAuth token refreshes",
		}),
		TokenRefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "asana_mcp_token_refresh_failures_total",
			Help: "Total number of failed OAuth token refreshes",
		}),
		ReauthBlocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "asana_mcp_reauth_blocked_total",
			Help: "Total number of re-authentication attempts refused by the circuit breaker",
		}),
		AsanaRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asana_mcp_asana_requests_total",
			Help: "Total number of requests issued to the Asana API",
		}, []string{"method", "status"}),
	}
}

func (m *Metrics) IncSessionsCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

func (m *Metrics) IncSessionsRevoked() {
	if m == nil {
		return
	}
	m.SessionsRevoked.Inc()
}

func (m *Metrics) AddSessionsPurged(n int) {
	if m == nil {
		return
	}
	m.SessionsPurged.Add(float64(n))
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) IncTokenRefreshes() {
	if m == nil {
		return
	}
	m.TokenRefreshes.Inc()
}

func (m *Metrics) IncTokenRefreshFailures() {
	if m == nil {
		return
	}
	m.TokenRefreshFailures.Inc()
}

func (m *Metrics) IncReauthBlocked() {
	if m == nil {
		return
	}
	m.ReauthBlocked.Inc()
}

func (m *Metrics) IncAsanaRequest(method, status string) {
	if m == nil {
		return
	}
	m.AsanaRequests.WithLabelValues(method, status).Inc()
}
