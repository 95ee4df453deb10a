package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	requestsTotal           *prometheus.CounterVec
	requestLatencySeconds   *prometheus.HistogramVec
	vitalAlertsFired        *prometheus.CounterVec
	alertEvaluationErrors   *prometheus.CounterVec
	activityJoinsTotal      *prometheus.CounterVec
	petInteractionsTotal    *prometheus.CounterVec
	alertStreamClientsGauge prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peiban_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "peiban_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		vitalAlertsFired = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peiban_vital_alerts_fired_total",
			Help: "Health alerts created by vital-sign threshold evaluation.",
		}, []string{"record_type", "severity"})

		alertEvaluationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peiban_alert_evaluation_failures_total",
			Help: "Suppressed failures in the alert evaluation side channel.",
		}, []string{"reason"})

		activityJoinsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peiban_activity_joins_total",
			Help: "Join attempts against activities, by outcome.",
		}, []string{"outcome"})

		petInteractionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peiban_pet_interactions_total",
			Help: "Pet interactions recorded, by interaction type.",
		}, []string{"type"})

		alertStreamClientsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "peiban_alert_stream_clients",
			Help: "Active SSE subscribers on the alert stream.",
		})

		prometheus.MustRegister(
			requestsTotal,
			requestLatencySeconds,
			vitalAlertsFired,
			alertEvaluationErrors,
			activityJoinsTotal,
			petInteractionsTotal,
			alertStreamClientsGauge,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// RequestLatency exposes the latency histogram for API requests.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// VitalAlertsFired exposes the counter for fired vital-sign alerts.
func VitalAlertsFired() *prometheus.CounterVec {
	RegisterMetrics()
	return vitalAlertsFired
}

// AlertEvaluationFailures exposes the counter for suppressed evaluation errors.
func AlertEvaluationFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return alertEvaluationErrors
}

// ActivityJoins exposes the counter for activity join outcomes.
func ActivityJoins() *prometheus.CounterVec {
	RegisterMetrics()
	return activityJoinsTotal
}

// PetInteractions exposes the counter for recorded pet interactions.
func PetInteractions() *prometheus.CounterVec {
	RegisterMetrics()
	return petInteractionsTotal
}

// AlertStreamClients exposes the gauge of active alert stream subscribers.
func AlertStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return alertStreamClientsGauge
}
