package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/utils"
)

// AlertGenerator derives alerts from a completed assessment. It has no side
// effects; persisting and dispatching alerts is left to the caller.
type AlertGenerator struct {
	newID func() string
}

// NewAlertGenerator creates a generator that stamps alerts with UUIDv4 ids.
func NewAlertGenerator() *AlertGenerator {
	return &AlertGenerator{newID: func() string { return uuid.NewString() }}
}

// Generate returns one alert per factor at or above the high band plus an
// overall_risk alert when the overall score reaches OverallAlertMin.
func (g *AlertGenerator) Generate(assessment *models.RiskAssessment, entityName string, now time.Time) []*models.Alert {
	if assessment == nil {
		return nil
	}
	if entityName == "" {
		entityName = assessment.EntityID
	}

	alerts := make([]*models.Alert, 0)
	for _, category := range models.AllCategories {
		factor, ok := assessment.Factors[category]
		if !ok {
			continue
		}
		alertType := DetermineAlertType(category, factor.Score)
		if alertType == "" {
			continue
		}
		alerts = append(alerts, g.factorAlert(assessment, entityName, alertType, factor, now))
	}

	if assessment.OverallScore >= OverallAlertMin {
		alerts = append(alerts, g.overallAlert(assessment, entityName, now))
	}
	return alerts
}

func (g *AlertGenerator) factorAlert(a *models.RiskAssessment, entityName, alertType string, f models.RiskFactor, now time.Time) *models.Alert {
	tmpl, known := alertTemplates[alertType]

	title := fallbackAlertTitle
	message := fmt.Sprintf("Risk Alert for %s (Score: %s)", entityName, utils.FormatScore(f.Score))
	description := fmt.Sprintf("Risk factor detected with score %s. Immediate review recommended.", utils.FormatScore(f.Score))
	if known {
		title = tmpl.Title
		message = fmt.Sprintf("%s for %s (Risk: %s)", tmpl.Title, entityName, utils.FormatScore(f.Score))
		description = fmt.Sprintf("%s. Risk score: %s, Impact: %s, Probability: %s%%.",
			tmpl.Description, utils.FormatScore(f.Score), utils.FormatScore(f.Impact), utils.FormatPercent(f.Probability))
	}
	if len(f.ContributingAttributes) > 0 {
		names := make([]string, len(f.ContributingAttributes))
		for i, attr := range f.ContributingAttributes {
			names[i] = AttributeDisplayName(attr)
		}
		description += " Contributing factors: " + strings.Join(names, ", ") + "."
	}

	alert := g.newAlert(a, entityName, f.Score, now)
	alert.Category = f.Category
	alert.AlertType = alertType
	alert.Title = title
	alert.Message = message
	alert.Description = description
	alert.MitigationSteps = stepsFor(f.Category)
	return alert
}

func (g *AlertGenerator) overallAlert(a *models.RiskAssessment, entityName string, now time.Time) *models.Alert {
	score := utils.FormatScore(a.OverallScore)
	alert := g.newAlert(a, entityName, a.OverallScore, now)
	alert.AlertType = models.OverallRiskAlertType
	alert.Title = "High Overall Risk: " + entityName
	alert.Message = fmt.Sprintf("%s has a %s overall risk score of %s", entityName, a.RiskLevel, score)
	alert.Description = fmt.Sprintf(
		"The %s %s has been assessed with an overall risk score of %s, indicating %s. Immediate attention is required.",
		a.EntityType, entityName, score, riskLevelProse[a.RiskLevel])
	alert.RiskLevel = a.RiskLevel
	alert.MitigationSteps = append([]string(nil), overallAlertSteps...)
	return alert
}

func (g *AlertGenerator) newAlert(a *models.RiskAssessment, entityName string, score float64, now time.Time) *models.Alert {
	threshold := ThresholdFor(score)
	return &models.Alert{
		ID:                 g.newID(),
		SourceAssessmentID: a.ID,
		EntityType:         a.EntityType,
		EntityID:           a.EntityID,
		EntityName:         entityName,
		RiskScore:          score,
		RiskLevel:          LevelOf(score),
		Priority:           threshold.Priority,
		InitialPriority:    threshold.Priority,
		Status:             models.AlertStatusActive,
		CreatedAt:          now,
		DueDate:            now.Add(threshold.EscalationWindow),
	}
}
