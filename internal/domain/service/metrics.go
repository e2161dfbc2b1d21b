// Package service holds the risk scoring, trend and alert derivation logic of the risk engine.
package service

import (
	"time"
)

// Metrics defines the interface for collecting business metrics.
// This abstraction allows the application layer to remain independent of the specific monitoring implementation (e.g., Prometheus).
// Metrics 定义了收集业务指标的接口。
// 这种抽象使应用层能够独立于具体的监控实现（例如 Prometheus）。
type Metrics interface {
	// RecordAssessment records a completed entity or portfolio assessment.
	// RecordAssessment 记录一次完成的实体或组合评估。
	RecordAssessment(entityType, riskLevel string, needsReview bool, duration time.Duration)

	// RecordPortfolioFailure records an entity that could not be assessed in a portfolio run.
	// RecordPortfolioFailure 记录组合评估中无法评估的实体。
	RecordPortfolioFailure(entityType string)

	// RecordAlertCreated records a newly raised alert.
	// RecordAlertCreated 记录新产生的告警。
	RecordAlertCreated(alertType, priority string)

	// RecordAlertTransition records an acknowledge, resolve or escalate operation.
	// RecordAlertTransition 记录告警状态变更操作。
	RecordAlertTransition(operation string, success bool)

	// RecordSweep records the outcome of one alert sweep.
	// RecordSweep 记录一次告警巡检的结果。
	RecordSweep(processed, escalated, notifications, errs int, skipped bool, duration time.Duration)

	// RecordNotification records a delivery attempt on one channel.
	// RecordNotification 记录单一渠道上的投递尝试。
	RecordNotification(channel, kind string, success bool)
}

// NoopMetrics discards every measurement.
type NoopMetrics struct{}

func (NoopMetrics) RecordAssessment(string, string, bool, time.Duration) {}
func (NoopMetrics) RecordPortfolioFailure(string)                        {}
func (NoopMetrics) RecordAlertCreated(string, string)                    {}
func (NoopMetrics) RecordAlertTransition(string, bool)                   {}
func (NoopMetrics) RecordSweep(int, int, int, int, bool, time.Duration)  {}
func (NoopMetrics) RecordNotification(string, string, bool)              {}
