package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes.
const (
	OutcomeProbe    = "probe"
	OutcomeResponse = "response"
	OutcomeFault    = "fault"
)

// Resolution sources of the content-matcher registry.
const (
	SourcePlugin   = "plugin"
	SourceOverride = "override"
	SourceBuiltin  = "builtin"
	SourceNone     = "none"
)

// Metrics holds the collectors shared by the provider and the registry.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	faults      *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// contractmock_provider_requests_total{method="GET",outcome="response",status="200"}
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractmock",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Requests handled by the mock provider",
		}, []string{"method", "outcome", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contractmock",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Time spent in the interception pipeline",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		// stage is one of decode, generate, respond
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractmock",
			Subsystem: "provider",
			Name:      "faults_total",
			Help:      "Pipeline failures converted into fault responses",
		}, []string{"stage"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractmock",
			Subsystem: "matchers",
			Name:      "resolutions_total",
			Help:      "Content matcher resolutions by source",
		}, []string{"source"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.faults, m.resolutions)
	}

	for _, source := range []string{SourcePlugin, SourceOverride, SourceBuiltin, SourceNone} {
		m.resolutions.WithLabelValues(source)
	}
	return m
}

// ObserveRequest records one completed pipeline invocation.
func (m *Metrics) ObserveRequest(method, outcome string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// IncFault records a pipeline failure at the given stage.
func (m *Metrics) IncFault(stage string) {
	if m == nil {
		return
	}
	m.faults.WithLabelValues(stage).Inc()
}

// IncResolution records where a content matcher came from.
func (m *Metrics) IncResolution(source string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(source).Inc()
}
