package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	AssessmentsTotal     *prometheus.CounterVec
	AssessmentLatency    *prometheus.HistogramVec
	PortfolioFailures    *prometheus.CounterVec
	AlertsCreated        *prometheus.CounterVec
	AlertTransitions     *prometheus.CounterVec
	SweepDuration        prometheus.Histogram
	SweepAlerts          *prometheus.CounterVec
	SweepsSkipped        prometheus.Counter
	NotificationAttempts *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	RateLimitHits        *prometheus.CounterVec
}

// NewMetricsWithRegistry creates the metrics on reg.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AssessmentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_assessments_total",
				Help: "Total number of completed risk assessments.",
			},
			[]string{"entity_type", "risk_level", "needs_review"},
		),
		AssessmentLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskengine_assessment_duration_seconds",
				Help:    "Latency of risk assessments.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity_type"},
		),
		PortfolioFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_portfolio_entity_failures_total",
				Help: "Entities excluded from a portfolio roll-up because their assessment failed.",
			},
			[]string{"entity_type"},
		),
		AlertsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_alerts_created_total",
				Help: "Total number of alerts raised.",
			},
			[]string{"alert_type", "priority"},
		),
		AlertTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_alert_transitions_total",
				Help: "Alert acknowledge, resolve and escalate operations.",
			},
			[]string{"operation", "result"},
		),
		SweepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "riskengine_alert_sweep_duration_seconds",
				Help:    "Duration of alert queue sweeps.",
				Buckets: prometheus.DefBuckets,
			},
		),
		SweepAlerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_alert_sweep_alerts_total",
				Help: "Alerts handled by sweeps, by outcome.",
			},
			[]string{"outcome"},
		),
		SweepsSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "riskengine_alert_sweeps_skipped_total",
				Help: "Sweeps skipped because another sweep held the lock.",
			},
		),
		NotificationAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_notification_attempts_total",
				Help: "Notification deliveries by channel, kind and result.",
			},
			[]string{"channel", "kind", "result"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskengine_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskengine_rate_limit_hits_total",
				Help: "Total number of rate limit hits.",
			},
			[]string{"scope"},
		),
	}
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordAssessment records a completed assessment.
func (m *Metrics) RecordAssessment(entityType, riskLevel string, needsReview bool, duration time.Duration) {
	m.AssessmentsTotal.WithLabelValues(entityType, riskLevel, strconv.FormatBool(needsReview)).Inc()
	m.AssessmentLatency.WithLabelValues(entityType).Observe(duration.Seconds())
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit(scope string) {
	m.RateLimitHits.WithLabelValues(scope).Inc()
}
