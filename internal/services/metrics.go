package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	IdeasCreated       prometheus.Counter
	GenerationRequests *prometheus.CounterVec
	GenerationErrors   *prometheus.CounterVec
	GenerationLatency  prometheus.Histogram
	ScheduleAdmissions *prometheus.CounterVec
	AutomationTriggers *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		IdeasCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "postforge_ideas_created_total",
			Help: "Total number of content ideas captured",
		}),

		// Generation requests by kind (counter - only goes up)
		GenerationRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "postforge_generation_requests_total",
			Help: "Total number of generation requests by kind",
		}, []string{"kind"}), // kind: "copy" or "image"

		GenerationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "postforge_generation_errors_total",
			Help: "Total number of generation errors by kind",
		}, []string{"kind"}),

		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "postforge_generation_duration_seconds",
			Help:    "Generation request latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for image generation
		}),

		ScheduleAdmissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "postforge_schedule_admissions_total",
			Help: "Total number of scheduling admission decisions by outcome",
		}, []string{"outcome"}), // outcome: "admitted" or "rejected"

		AutomationTriggers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "postforge_automation_triggers_total",
			Help: "Total number of automation webhook deliveries by outcome",
		}, []string{"outcome"}), // outcome: "delivered" or "failed"
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordIdeaCreated records a captured idea
func (m *Metrics) RecordIdeaCreated() {
	m.IdeasCreated.Inc()
}

// RecordGenerationRequest records a generation request
func (m *Metrics) RecordGenerationRequest(kind string) {
	m.GenerationRequests.WithLabelValues(kind).Inc()
}

// RecordGenerationError records a generation error
func (m *Metrics) RecordGenerationError(kind string) {
	m.GenerationErrors.WithLabelValues(kind).Inc()
}

// RecordGenerationLatency records generation latency
func (m *Metrics) RecordGenerationLatency(seconds float64) {
	m.GenerationLatency.Observe(seconds)
}

// RecordScheduleAdmission records an admission decision
func (m *Metrics) RecordScheduleAdmission(outcome string) {
	m.ScheduleAdmissions.WithLabelValues(outcome).Inc()
}

// RecordAutomationTrigger records a webhook delivery outcome
func (m *Metrics) RecordAutomationTrigger(outcome string) {
	m.AutomationTriggers.WithLabelValues(outcome).Inc()
}
