package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Consent lifecycle
	ConsentsCreated *prometheus.CounterVec
	ConsentsRevoked *prometheus.CounterVec

	// Access decisions
	Evaluations       *prometheus.CounterVec
	EvaluationLatency prometheus.Histogram

	// Audit trail
	AuditWrites        prometheus.Counter
	AuditWriteFailures prometheus.Counter

	// External registry
	RegistryLookups       *prometheus.CounterVec
	RegistryLookupLatency prometheus.Histogram

	// HTTP
	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ConsentsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medgate_consents_created_total",
			Help: "Total number of consent records created, labeled by kind",
		}, []string{"kind"}),
		ConsentsRevoked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medgate_consents_revoked_total",
			Help: "Total number of consent records revoked, labeled by kind",
		}, []string{"kind"}),
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medgate_access_evaluations_total",
			Help: "Total number of access evaluations, labeled by verdict and reason",
		}, []string{"verdict", "reason"}),
		EvaluationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "medgate_access_evaluation_latency_seconds",
			Help:    "End-to-end latency of access lookups in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		AuditWrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medgate_audit_writes_total",
			Help: "Total number of audit entries written",
		}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medgate_audit_write_failures_total",
			Help: "Total number of failed audit appends",
		}),
		RegistryLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medgate_registry_lookups_total",
			Help: "Total number of registry lookups, labeled by outcome",
		}, []string{"outcome"}),
		RegistryLookupLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "medgate_registry_lookup_latency_seconds",
			Help:    "Latency of external registry lookups in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medgate_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// IncrementEvaluation records one access decision outcome.
func (m *Metrics) IncrementEvaluation(verdict, reason string) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(verdict, reason).Inc()
}

// ObserveEvaluationLatency records the duration of one lookup.
func (m *Metrics) ObserveEvaluationLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.EvaluationLatency.Observe(d.Seconds())
}

// IncrementConsentsCreated records a created consent by kind.
func (m *Metrics) IncrementConsentsCreated(kind string) {
	if m == nil {
		return
	}
	m.ConsentsCreated.WithLabelValues(kind).Inc()
}

// IncrementConsentsRevoked records a revoked consent by kind.
func (m *Metrics) IncrementConsentsRevoked(kind string) {
	if m == nil {
		return
	}
	m.ConsentsRevoked.WithLabelValues(kind).Inc()
}

// IncrementAuditWrite records one successful audit append.
func (m *Metrics) IncrementAuditWrite() {
	if m == nil {
		return
	}
	m.AuditWrites.Inc()
}

// IncrementAuditWriteFailure records one failed audit append.
func (m *Metrics) IncrementAuditWriteFailure() {
	if m == nil {
		return
	}
	m.AuditWriteFailures.Inc()
}

// IncrementRegistryLookup records one registry call outcome (ok, not_found, transport_error).
func (m *Metrics) IncrementRegistryLookup(outcome string) {
	if m == nil {
		return
	}
	m.RegistryLookups.WithLabelValues(outcome).Inc()
}

// ObserveRegistryLookupLatency records the duration of one registry call.
func (m *Metrics) ObserveRegistryLookupLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.RegistryLookupLatency.Observe(d.Seconds())
}

// ObserveEndpointLatency records handler latency for one endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, d time.Duration) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}
