// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the pforte boundary.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LookupBuckets defines histogram buckets suited for directory lookups,
// ranging from 1ms to 10s.
var LookupBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pforte_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pforte_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// SessionDecisionsTotal counts session gate outcomes:
	// "allowed", "renewed", "denied", "public".
	SessionDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pforte_session_decisions_total",
			Help: "Session gate decisions",
		},
		[]string{"outcome"},
	)

	// RenewalsTotal counts sliding renewals of the access token.
	RenewalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pforte_token_renewals_total",
			Help: "Access token sliding renewals",
		},
	)

	// GuardDecisionsTotal counts authorization guard outcomes:
	// "allowed", "role_denied", "permission_denied", "unauthenticated",
	// "error".
	GuardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pforte_guard_decisions_total",
			Help: "Authorization guard decisions",
		},
		[]string{"outcome"},
	)

	// PeerDecisionsTotal counts service trust gate outcomes:
	// "allowed", "denied".
	PeerDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pforte_peer_decisions_total",
			Help: "Service trust gate decisions",
		},
		[]string{"outcome"},
	)

	// DirectoryLookupDuration records directory access-resolution latency
	// in seconds.
	DirectoryLookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pforte_directory_lookup_duration_seconds",
			Help:    "Directory lookup latency",
			Buckets: LookupBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		SessionDecisionsTotal,
		RenewalsTotal,
		GuardDecisionsTotal,
		PeerDecisionsTotal,
		DirectoryLookupDuration,
	)
}
