package models

import (
	"time"

	"github.com/turtacn/riskengine/pkg/errors"
)

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusResolved:
		return true
	}
	return false
}

// OverallRiskAlertType is the alert type raised for a high overall score.
const OverallRiskAlertType = "overall_risk"

// Alert is a threshold-triggered notice derived from an assessment.
type Alert struct {
	ID                  string      `json:"id"`
	SourceAssessmentID  string      `json:"source_assessment_id"`
	EntityType          EntityType  `json:"entity_type"`
	EntityID            string      `json:"entity_id"`
	EntityName          string      `json:"entity_name,omitempty"`
	Category            Category    `json:"category,omitempty"`
	AlertType           string      `json:"alert_type"`
	Title               string      `json:"title"`
	Message             string      `json:"message"`
	Description         string      `json:"description"`
	RiskScore           float64     `json:"risk_score"`
	RiskLevel           RiskLevel   `json:"risk_level"`
	Priority            Priority    `json:"priority"`
	InitialPriority     Priority    `json:"initial_priority"`
	Status              AlertStatus `json:"status"`
	CreatedAt           time.Time   `json:"created_at"`
	DueDate             time.Time   `json:"due_date"`
	AcknowledgedBy      *string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt      *time.Time  `json:"acknowledged_at,omitempty"`
	AcknowledgmentNotes string      `json:"acknowledgment_notes,omitempty"`
	ResolvedBy          *string     `json:"resolved_by,omitempty"`
	ResolvedAt          *time.Time  `json:"resolved_at,omitempty"`
	ResolutionNotes     string      `json:"resolution_notes,omitempty"`
	EscalatedAt         *time.Time  `json:"escalated_at,omitempty"`
	EscalationCount     int         `json:"escalation_count"`
	LastReminderAt      *time.Time  `json:"last_reminder_at,omitempty"`
	MitigationSteps     []string    `json:"mitigation_steps"`
	Version             int64       `json:"version"`
}

// IsActive checks if the alert is still awaiting acknowledgement.
func (a *Alert) IsActive() bool {
	return a.Status == AlertStatusActive
}

// IsOverdue reports whether the alert is active and past its due date.
func (a *Alert) IsOverdue(now time.Time) bool {
	return a.IsActive() && now.After(a.DueDate)
}

// Acknowledge moves an active alert to acknowledged.
func (a *Alert) Acknowledge(userID, notes string, now time.Time) error {
	if a.Status != AlertStatusActive {
		return errors.ErrConflict("only active alerts can be acknowledged").
			WithMetadata("alert_id", a.ID).
			WithMetadata("status", string(a.Status))
	}
	a.Status = AlertStatusAcknowledged
	a.AcknowledgedBy = &userID
	a.AcknowledgedAt = &now
	a.AcknowledgmentNotes = notes
	return nil
}

// Resolve moves an active or acknowledged alert to resolved.
func (a *Alert) Resolve(userID, resolution string, now time.Time) error {
	if a.Status == AlertStatusResolved {
		return errors.ErrConflict("alert is already resolved").
			WithMetadata("alert_id", a.ID)
	}
	a.Status = AlertStatusResolved
	a.ResolvedBy = &userID
	a.ResolvedAt = &now
	a.ResolutionNotes = resolution
	return nil
}

// RaisePriority sets a new priority if it is more severe than the current one.
// It reports whether the priority changed.
func (a *Alert) RaisePriority(p Priority, now time.Time) bool {
	if p.Rank() <= a.Priority.Rank() {
		return false
	}
	a.Priority = p
	a.EscalatedAt = &now
	a.EscalationCount++
	return true
}

// MarkEscalated records an escalation that leaves the priority unchanged,
// which happens once an alert is already at the highest priority.
func (a *Alert) MarkEscalated(now time.Time) {
	a.EscalatedAt = &now
	a.EscalationCount++
}

// EscalationResult reports the outcome of one escalation attempt.
type EscalationResult struct {
	AlertID     string     `json:"alert_id"`
	Escalated   bool       `json:"escalated"`
	NewPriority Priority   `json:"new_priority,omitempty"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// AlertFilter narrows alert listings and statistics.
type AlertFilter struct {
	EntityType EntityType
	EntityID   string
	Status     AlertStatus
	Priority   Priority
	Category   Category
	Limit      int
	Offset     int
}

// AlertStatistics counts alerts by status, priority and category.
type AlertStatistics struct {
	Total      int                 `json:"total"`
	ByStatus   map[AlertStatus]int `json:"by_status"`
	ByPriority map[Priority]int    `json:"by_priority"`
	ByCategory map[string]int      `json:"by_category"`
	Overdue    int                 `json:"overdue"`
}

// SweepResult summarizes one pass over the active alert queue.
type SweepResult struct {
	Processed         int  `json:"processed"`
	Escalated         int  `json:"escalated"`
	NotificationsSent int  `json:"notifications_sent"`
	Errors            int  `json:"errors"`
	Skipped           bool `json:"skipped,omitempty"`
}
