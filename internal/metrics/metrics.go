package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	providerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tryon_provider_calls_total",
			Help: "Provider calls by fal model id and final outcome.",
		},
		[]string{"model", "outcome"},
	)

	providerAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tryon_provider_attempts_total",
			Help: "Individual provider attempts, including retries.",
		},
		[]string{"model"},
	)

	generationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tryon_generation_latency_seconds",
			Help:    "Wall clock latency of successful provider calls.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300, 600},
		},
		[]string{"provider"},
	)

	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tryon_jobs_total",
			Help: "Jobs reaching a terminal state by kind and status.",
		},
		[]string{"kind", "status"},
	)

	jobsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tryon_jobs_in_flight",
			Help: "Jobs currently in the processing state.",
		},
		[]string{"kind"},
	)
)

// ObserveAttempt counts one provider attempt.
func ObserveAttempt(model string) {
	providerAttemptsTotal.WithLabelValues(model).Inc()
}

// ObserveCall records the final outcome of a retried provider call.
func ObserveCall(model string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	providerCallsTotal.WithLabelValues(model, outcome).Inc()
}

// ObserveGeneration records the latency of a successful generation.
func ObserveGeneration(provider string, latency time.Duration) {
	generationLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// JobStarted marks a job of kind as in flight.
func JobStarted(kind string) {
	jobsInFlight.WithLabelValues(kind).Inc()
}

// JobFinished moves a job of kind out of flight and counts its status.
func JobFinished(kind, status string) {
	jobsInFlight.WithLabelValues(kind).Dec()
	jobsTotal.WithLabelValues(kind, status).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
