package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GateMetrics holds all Prometheus metrics for the freemium request gate.
type GateMetrics struct {
	RequestsTotal      *prometheus.CounterVec
	RateLimitedTotal   *prometheus.CounterVec
	QuotaDenialsTotal  *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	UsageEventsTotal   *prometheus.CounterVec
	AccountCacheHits   prometheus.Counter
	AccountCacheMisses prometheus.Counter
}

// NewGateMetrics initializes and registers the Prometheus metrics.
func NewGateMetrics() *GateMetrics {
	return &GateMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorship",
			Subsystem: "gate",
			Name:      "requests_total",
			Help:      "Total number of gated requests by tier and outcome.",
		}, []string{"tier", "outcome"}), // outcome: allowed, rate_limited, quota_denied, not_found, store_error
		RateLimitedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorship",
			Subsystem: "gate",
			Name:      "rate_limited_total",
			Help:      "Total number of rate-limit denials by tier and granularity.",
		}, []string{"tier", "granularity"}),
		QuotaDenialsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorship",
			Subsystem: "gate",
			Name:      "quota_denials_total",
			Help:      "Total number of entitlement denials by tier and action.",
		}, []string{"tier", "action"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mentorship",
			Subsystem: "gate",
			Name:      "request_duration_seconds",
			Help:      "Duration of gated requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tier"}),
		UsageEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorship",
			Subsystem: "usage",
			Name:      "events_total",
			Help:      "Total number of usage events by status.",
		}, []string{"status"}), // status: recorded, dropped
		AccountCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorship",
			Subsystem: "accounts",
			Name:      "cache_hits_total",
			Help:      "Total number of account cache hits.",
		}),
		AccountCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorship",
			Subsystem: "accounts",
			Name:      "cache_misses_total",
			Help:      "Total number of account cache misses.",
		}),
	}
}
