package monitoring

import (
	"time"

	"github.com/turtacn/riskengine/internal/domain/service"
)

// MetricsAdapter 将 Prometheus 指标适配为领域层的 service.Metrics 接口
// MetricsAdapter adapts the Prometheus metrics to the domain service.Metrics interface.
type MetricsAdapter struct {
	metrics *Metrics
}

// NewMetricsAdapter creates a new MetricsAdapter.
func NewMetricsAdapter(m *Metrics) service.Metrics {
	return &MetricsAdapter{metrics: m}
}

func (a *MetricsAdapter) RecordAssessment(entityType, riskLevel string, needsReview bool, duration time.Duration) {
	a.metrics.RecordAssessment(entityType, riskLevel, needsReview, duration)
}

func (a *MetricsAdapter) RecordPortfolioFailure(entityType string) {
	a.metrics.PortfolioFailures.WithLabelValues(entityType).Inc()
}

func (a *MetricsAdapter) RecordAlertCreated(alertType, priority string) {
	a.metrics.AlertsCreated.WithLabelValues(alertType, priority).Inc()
}

func (a *MetricsAdapter) RecordAlertTransition(op string, success bool) {
	a.metrics.AlertTransitions.WithLabelValues(op, resultLabel(success)).Inc()
}

func (a *MetricsAdapter) RecordSweep(processed, escalated, notifications, errs int, skipped bool, duration time.Duration) {
	if skipped {
		a.metrics.SweepsSkipped.Inc()
		return
	}
	a.metrics.SweepDuration.Observe(duration.Seconds())
	a.metrics.SweepAlerts.WithLabelValues("processed").Add(float64(processed))
	a.metrics.SweepAlerts.WithLabelValues("escalated").Add(float64(escalated))
	a.metrics.SweepAlerts.WithLabelValues("notified").Add(float64(notifications))
	a.metrics.SweepAlerts.WithLabelValues("error").Add(float64(errs))
}

func (a *MetricsAdapter) RecordNotification(channel, kind string, success bool) {
	a.metrics.NotificationAttempts.WithLabelValues(channel, kind, resultLabel(success)).Inc()
}
