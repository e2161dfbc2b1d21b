package service

import (
	"time"

	"github.com/turtacn/riskengine/internal/domain/models"
)

// MaxScore caps every factor and overall score.
const MaxScore = 5.0

// levelBand maps a minimum score to a risk level.
type levelBand struct {
	Min   float64
	Level models.RiskLevel
}

// riskLevelBands is evaluated high to low; the first band whose Min is reached wins.
var riskLevelBands = []levelBand{
	{Min: 4.0, Level: models.RiskLevelCritical},
	{Min: 3.0, Level: models.RiskLevelHigh},
	{Min: 2.0, Level: models.RiskLevelMedium},
	{Min: 1.0, Level: models.RiskLevelLow},
}

// LevelOf returns the risk level for a score.
func LevelOf(score float64) models.RiskLevel {
	for _, b := range riskLevelBands {
		if score >= b.Min {
			return b.Level
		}
	}
	return models.RiskLevelMinimal
}

// AlertThreshold is one row of the alert priority table.
type AlertThreshold struct {
	Min              float64
	Priority         models.Priority
	EscalationWindow time.Duration
}

// alertThresholds is evaluated high to low. Scores below the last row use the last row.
var alertThresholds = []AlertThreshold{
	{Min: 4.0, Priority: models.PriorityImmediate, EscalationWindow: 1 * time.Hour},
	{Min: 3.0, Priority: models.PriorityUrgent, EscalationWindow: 4 * time.Hour},
	{Min: 2.0, Priority: models.PriorityHigh, EscalationWindow: 24 * time.Hour},
	{Min: 1.0, Priority: models.PriorityMedium, EscalationWindow: 72 * time.Hour},
}

// ThresholdFor returns the alert priority row for a score.
func ThresholdFor(score float64) AlertThreshold {
	for _, t := range alertThresholds {
		if score >= t.Min {
			return t
		}
	}
	return alertThresholds[len(alertThresholds)-1]
}

// EscalationWindow returns the due-date offset for an alert created at priority p.
func EscalationWindow(p models.Priority) time.Duration {
	for _, t := range alertThresholds {
		if t.Priority == p {
			return t.EscalationWindow
		}
	}
	return alertThresholds[len(alertThresholds)-1].EscalationWindow
}

// escalationMap advances an overdue alert's priority. Immediate is the ceiling.
var escalationMap = map[models.Priority]models.Priority{
	models.PriorityMedium:    models.PriorityHigh,
	models.PriorityHigh:      models.PriorityImmediate,
	models.PriorityUrgent:    models.PriorityImmediate,
	models.PriorityImmediate: models.PriorityImmediate,
}

// NextPriority returns the priority an overdue alert escalates to.
func NextPriority(p models.Priority) models.Priority {
	if next, ok := escalationMap[p]; ok {
		return next
	}
	return models.PriorityHigh
}

// Alert type suffixes and their minimum factor scores.
const (
	alertCriticalMin = 4.0
	alertHighMin     = 3.0

	// OverallAlertMin is the overall score that raises an overall_risk alert.
	OverallAlertMin = 3.0
)

// DetermineAlertType returns "<category>_critical", "<category>_high" or "" when no alert applies.
func DetermineAlertType(category models.Category, score float64) string {
	switch {
	case score >= alertCriticalMin:
		return string(category) + "_critical"
	case score >= alertHighMin:
		return string(category) + "_high"
	}
	return ""
}

// MitigationTrigger is the factor score at which a mitigation strategy is produced.
const MitigationTrigger = 2.0

// ScoreBand splits strategy scores into three buckets.
type ScoreBand int

const (
	BandLow ScoreBand = iota
	BandMedium
	BandHigh
)

// BandOf places a score in the strategy band used for priority, cost and timeline.
func BandOf(score float64) ScoreBand {
	switch {
	case score >= 4.0:
		return BandHigh
	case score >= 3.0:
		return BandMedium
	}
	return BandLow
}

// strategyPriorities maps a score band to the mitigation strategy priority.
var strategyPriorities = map[ScoreBand]models.Priority{
	BandHigh:   models.PriorityImmediate,
	BandMedium: models.PriorityUrgent,
	BandLow:    models.PriorityHigh,
}

// StrategyPriority returns the mitigation strategy priority for a score.
func StrategyPriority(score float64) models.Priority {
	return strategyPriorities[BandOf(score)]
}

// timelineBands maps a score band to the remediation timeline.
var timelineBands = map[ScoreBand]string{
	BandHigh:   "1-2 weeks",
	BandMedium: "2-4 weeks",
	BandLow:    "1-2 months",
}

// TimelineBand returns the remediation timeline for a score.
func TimelineBand(score float64) string {
	return timelineBands[BandOf(score)]
}

// costBands holds the estimated remediation cost per category and band.
var costBands = map[models.Category]map[ScoreBand]string{
	models.CategoryMaintenance: {BandLow: "$1,000-5,000", BandMedium: "$5,000-15,000", BandHigh: "$15,000+"},
	models.CategoryChurn:       {BandLow: "$500-2,000", BandMedium: "$2,000-10,000", BandHigh: "$10,000+"},
	models.CategoryMarket:      {BandLow: "$1,000-3,000", BandMedium: "$3,000-10,000", BandHigh: "$10,000+"},
	models.CategoryFinancial:   {BandLow: "$2,000-5,000", BandMedium: "$5,000-20,000", BandHigh: "$20,000+"},
	models.CategoryPayment:     {BandLow: "$500-1,000", BandMedium: "$1,000-5,000", BandHigh: "$5,000+"},
	models.CategoryBehavioral:  {BandLow: "$1,000-3,000", BandMedium: "$3,000-8,000", BandHigh: "$8,000+"},
}

// CostBand returns the estimated remediation cost for a category and score.
// Categories without their own row use the maintenance row.
func CostBand(category models.Category, score float64) string {
	row, ok := costBands[category]
	if !ok {
		row = costBands[models.CategoryMaintenance]
	}
	return row[BandOf(score)]
}

// Trend analysis parameters.
const (
	TrendRecentWindow    = 5
	TrendStableThreshold = 0.5
	TrendMinPoints       = 2
)
