package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for TEEMetrics.Outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeExecutionFail = "execution_error"
	OutcomeSigningFail   = "signing_error"
	OutcomeMalformed     = "malformed_request"
	OutcomeCanceled      = "canceled"
)

// TEEMetrics tracks execute requests served by the signer handler.
type TEEMetrics struct {
	Requests          prometheus.Counter
	InFlight          prometheus.Gauge
	Outcomes          *prometheus.CounterVec
	ExecutionDuration prometheus.Histogram
	AddressRequests   prometheus.Counter
}

// NewTEEMetrics registers the signer metrics with reg. A nil reg creates
// unregistered collectors, which is what tests usually want.
func NewTEEMetrics(reg prometheus.Registerer, namespace string) *TEEMetrics {
	factory := promauto.With(reg)
	return &TEEMetrics{
		Requests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "execute_requests_total",
			Help:      "Execute requests received.",
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "execute_in_flight",
			Help:      "Execute requests currently streaming.",
		}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "execute_outcomes_total",
			Help:      "Terminal outcomes of execute requests.",
		}, []string{"outcome"}),
		ExecutionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Time spent executing and signing.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		AddressRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "address_requests_total",
			Help:      "Signer address requests served.",
		}),
	}
}
