// Package constants defines system-wide constants for the risk engine service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ServiceName is the name reported to tracing and logging backends.
const ServiceName = "riskengine"

// ================================================================================
// Error Code Constants
// ================================================================================

// ErrorCode represents a machine-readable error code returned by the API
type ErrorCode string

const (
	// ErrCodeValidation indicates a malformed entity type, entity id or request body
	ErrCodeValidation ErrorCode = "validation_error"

	// ErrCodeNotFound indicates an entity snapshot, assessment or alert does not exist
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeComputation indicates a single factor calculation failed
	ErrCodeComputation ErrorCode = "computation_error"

	// ErrCodeAggregation indicates no factor produced a score
	ErrCodeAggregation ErrorCode = "aggregation_error"

	// ErrCodeNotification indicates a delivery failure on a notification channel
	ErrCodeNotification ErrorCode = "notification_error"

	// ErrCodeInvalidTransition indicates an illegal alert state change or a lost update race
	ErrCodeInvalidTransition ErrorCode = "invalid_transition"

	// ErrCodeRateLimitExceeded indicates the caller exceeded the request budget
	ErrCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"

	// ErrCodeUnavailable indicates a dependency is temporarily unavailable
	ErrCodeUnavailable ErrorCode = "temporarily_unavailable"

	// ErrCodeInternal indicates an unexpected server-side failure
	ErrCodeInternal ErrorCode = "internal_error"
)

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	// LogLevelDebug is the most verbose logging level
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo is the standard informational logging level
	LogLevelInfo LogLevel = "info"

	// LogLevelWarn indicates potential issues
	LogLevelWarn LogLevel = "warn"

	// LogLevelError indicates errors that need attention
	LogLevelError LogLevel = "error"

	// LogLevelFatal indicates critical errors that cause service termination
	LogLevelFatal LogLevel = "fatal"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID is the key for distributed trace ID in context
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeyUserID is the key for the acting user in context
	ContextKeyUserID ContextKey = "user_id"

	// ContextKeyClientIP is the key for client IP address in context
	ContextKeyClientIP ContextKey = "client_ip"
)

// ================================================================================
// Assessment Defaults
// ================================================================================

const (
	// DefaultNextAssessmentInterval is the gap between an assessment and the next scheduled one
	DefaultNextAssessmentInterval = 30 * 24 * time.Hour

	// DefaultEntityAssessmentTimeout bounds a single entity assessment in a portfolio run
	DefaultEntityAssessmentTimeout = 10 * time.Second

	// DefaultPortfolioConcurrency is the number of entity assessments run in parallel
	DefaultPortfolioConcurrency = 8

	// DefaultHistoryLimit is the page size for assessment history queries
	DefaultHistoryLimit = 10

	// TrendHistoryLimit is the number of assessments read for trend analysis
	TrendHistoryLimit = 50

	// PortfolioEntityID is the entity id under which portfolio roll-ups are stored
	PortfolioEntityID = "portfolio-main"
)

// ================================================================================
// Alert Sweep Defaults
// ================================================================================

const (
	// DefaultSweepInterval is the period of the alert escalation sweep
	DefaultSweepInterval = time.Minute

	// DefaultReminderInterval is the minimum gap between reminders for one overdue alert
	DefaultReminderInterval = time.Hour

	// DefaultSweepLockTTL bounds how long a crashed sweeper can hold the distributed lock
	DefaultSweepLockTTL = 5 * time.Minute

	// SweepLockKey is the Redis key guarding the alert sweep
	SweepLockKey = "riskengine:lock:alert-sweep"

	// InAppInboxKeyPrefix prefixes per-recipient in-app notification lists
	InAppInboxKeyPrefix = "riskengine:inbox:"

	// InAppInboxMaxLen caps the number of notifications kept per recipient
	InAppInboxMaxLen = 500
)

// ================================================================================
// Notification Defaults
// ================================================================================

const (
	// DefaultNotificationMaxAttempts bounds delivery attempts per channel
	DefaultNotificationMaxAttempts = 3

	// DefaultNotificationInitialBackoff is the wait before the first retry
	DefaultNotificationInitialBackoff = 200 * time.Millisecond

	// DefaultNotificationMaxBackoff caps the wait between retries
	DefaultNotificationMaxBackoff = 2 * time.Second
)

// ================================================================================
// Messaging
// ================================================================================

const (
	// DefaultAlertEventsTopic carries alert lifecycle events
	DefaultAlertEventsTopic = "riskengine.alert-events"

	// DefaultAssessmentRequestsTopic carries scheduled assessment requests
	DefaultAssessmentRequestsTopic = "riskengine.assessment-requests"

	// AssessmentRequestsConsumerGroup is shared by all service instances
	AssessmentRequestsConsumerGroup = "riskengine-assessment-requests"
)
