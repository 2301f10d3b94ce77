package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sessionstore", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sessionstore", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	SchemaActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sessionstore", Name: "schema_actions_total", Help: "Provisioning outcomes per collection and action."},
		[]string{"collection", "action"},
	)
	SessionCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sessionstore", Name: "session_cache_total", Help: "Session cache lookups by collection and result (hit|miss|error)."},
		[]string{"collection", "result"},
	)
	SessionWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sessionstore", Name: "session_writes_total", Help: "Session store writes by collection and outcome."},
		[]string{"collection", "outcome"},
	)
)

var registerOnce sync.Once

// RegisterCollectors registers all collectors once; later calls are no-ops.
func RegisterCollectors(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(RateLimitAllowed)
		reg.MustRegister(RateLimitRejected)
		reg.MustRegister(SchemaActions)
		reg.MustRegister(SessionCache)
		reg.MustRegister(SessionWrites)
	})
}
