package postgres

import (
	"encoding/json"
	"time"

	"github.com/turtacn/riskengine/internal/domain/models"
)

// AssessmentDBM is the database model for a risk assessment.
// Factors, strategies and the portfolio summary are stored as JSON text.
type AssessmentDBM struct {
	ID                   string    `gorm:"primaryKey;type:varchar(36)"`
	EntityType           string    `gorm:"type:varchar(32);index:idx_assessment_entity,priority:1;not null"`
	EntityID             string    `gorm:"type:varchar(128);index:idx_assessment_entity,priority:2;not null"`
	EntityName           string    `gorm:"type:varchar(255)"`
	AssessmentType       string    `gorm:"type:varchar(32);not null"`
	OverallScore         float64   `gorm:"not null"`
	RiskLevel            string    `gorm:"type:varchar(16);not null"`
	Confidence           float64   `gorm:"not null"`
	Factors              string    `gorm:"type:text"`
	MitigationStrategies string    `gorm:"type:text"`
	AssessmentDate       time.Time `gorm:"index:idx_assessment_entity,priority:3;not null"`
	NextAssessmentDate   time.Time
	DataQuality          float64
	NeedsReview          bool
	PreviousScore        *float64
	Portfolio            *string `gorm:"type:text"`
}

func (AssessmentDBM) TableName() string {
	return "risk_assessments"
}

// AlertDBM is the database model for an alert.
type AlertDBM struct {
	ID                  string    `gorm:"primaryKey;type:varchar(36)"`
	SourceAssessmentID  string    `gorm:"type:varchar(36);index"`
	EntityType          string    `gorm:"type:varchar(32);index:idx_alert_entity,priority:1;not null"`
	EntityID            string    `gorm:"type:varchar(128);index:idx_alert_entity,priority:2;not null"`
	EntityName          string    `gorm:"type:varchar(255)"`
	Category            string    `gorm:"type:varchar(32)"`
	AlertType           string    `gorm:"type:varchar(64);not null"`
	Title               string    `gorm:"type:varchar(255)"`
	Message             string    `gorm:"type:text"`
	Description         string    `gorm:"type:text"`
	RiskScore           float64   `gorm:"not null"`
	RiskLevel           string    `gorm:"type:varchar(16)"`
	Priority            string    `gorm:"type:varchar(16);index;not null"`
	InitialPriority     string    `gorm:"type:varchar(16)"`
	Status              string    `gorm:"type:varchar(16);index;not null"`
	CreatedAt           time.Time `gorm:"index;not null"`
	DueDate             time.Time `gorm:"index;not null"`
	AcknowledgedBy      *string   `gorm:"type:varchar(128)"`
	AcknowledgedAt      *time.Time
	AcknowledgmentNotes string  `gorm:"type:text"`
	ResolvedBy          *string `gorm:"type:varchar(128)"`
	ResolvedAt          *time.Time
	ResolutionNotes     string `gorm:"type:text"`
	EscalatedAt         *time.Time
	EscalationCount     int
	LastReminderAt      *time.Time
	MitigationSteps     string `gorm:"type:text"`
	Version             int64  `gorm:"not null;default:1"`
}

func (AlertDBM) TableName() string {
	return "alerts"
}

func assessmentFromDomain(a *models.RiskAssessment) (*AssessmentDBM, error) {
	factors, err := json.Marshal(a.Factors)
	if err != nil {
		return nil, err
	}
	strategies, err := json.Marshal(a.MitigationStrategies)
	if err != nil {
		return nil, err
	}
	dbm := &AssessmentDBM{
		ID:                   a.ID,
		EntityType:           string(a.EntityType),
		EntityID:             a.EntityID,
		EntityName:           a.EntityName,
		AssessmentType:       string(a.AssessmentType),
		OverallScore:         a.OverallScore,
		RiskLevel:            string(a.RiskLevel),
		Confidence:           a.Confidence,
		Factors:              string(factors),
		MitigationStrategies: string(strategies),
		AssessmentDate:       a.AssessmentDate.UTC(),
		NextAssessmentDate:   a.NextAssessmentDate.UTC(),
		DataQuality:          a.DataQuality,
		NeedsReview:          a.NeedsReview,
		PreviousScore:        a.PreviousScore,
	}
	if a.Portfolio != nil {
		summary, err := json.Marshal(a.Portfolio)
		if err != nil {
			return nil, err
		}
		s := string(summary)
		dbm.Portfolio = &s
	}
	return dbm, nil
}

func (m *AssessmentDBM) toDomain() (*models.RiskAssessment, error) {
	a := &models.RiskAssessment{
		ID:                 m.ID,
		EntityType:         models.EntityType(m.EntityType),
		EntityID:           m.EntityID,
		EntityName:         m.EntityName,
		AssessmentType:     models.AssessmentType(m.AssessmentType),
		OverallScore:       m.OverallScore,
		RiskLevel:          models.RiskLevel(m.RiskLevel),
		Confidence:         m.Confidence,
		AssessmentDate:     m.AssessmentDate.UTC(),
		NextAssessmentDate: m.NextAssessmentDate.UTC(),
		DataQuality:        m.DataQuality,
		NeedsReview:        m.NeedsReview,
		PreviousScore:      m.PreviousScore,
	}
	if m.Factors != "" {
		if err := json.Unmarshal([]byte(m.Factors), &a.Factors); err != nil {
			return nil, err
		}
	}
	if m.MitigationStrategies != "" {
		if err := json.Unmarshal([]byte(m.MitigationStrategies), &a.MitigationStrategies); err != nil {
			return nil, err
		}
	}
	if m.Portfolio != nil && *m.Portfolio != "" {
		a.Portfolio = &models.PortfolioSummary{}
		if err := json.Unmarshal([]byte(*m.Portfolio), a.Portfolio); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func alertFromDomain(a *models.Alert) (*AlertDBM, error) {
	steps, err := json.Marshal(a.MitigationSteps)
	if err != nil {
		return nil, err
	}
	return &AlertDBM{
		ID:                  a.ID,
		SourceAssessmentID:  a.SourceAssessmentID,
		EntityType:          string(a.EntityType),
		EntityID:            a.EntityID,
		EntityName:          a.EntityName,
		Category:            string(a.Category),
		AlertType:           a.AlertType,
		Title:               a.Title,
		Message:             a.Message,
		Description:         a.Description,
		RiskScore:           a.RiskScore,
		RiskLevel:           string(a.RiskLevel),
		Priority:            string(a.Priority),
		InitialPriority:     string(a.InitialPriority),
		Status:              string(a.Status),
		CreatedAt:           a.CreatedAt.UTC(),
		DueDate:             a.DueDate.UTC(),
		AcknowledgedBy:      a.AcknowledgedBy,
		AcknowledgedAt:      utcPtr(a.AcknowledgedAt),
		AcknowledgmentNotes: a.AcknowledgmentNotes,
		ResolvedBy:          a.ResolvedBy,
		ResolvedAt:          utcPtr(a.ResolvedAt),
		ResolutionNotes:     a.ResolutionNotes,
		EscalatedAt:         utcPtr(a.EscalatedAt),
		EscalationCount:     a.EscalationCount,
		LastReminderAt:      utcPtr(a.LastReminderAt),
		MitigationSteps:     string(steps),
		Version:             a.Version,
	}, nil
}

func (m *AlertDBM) toDomain() (*models.Alert, error) {
	a := &models.Alert{
		ID:                  m.ID,
		SourceAssessmentID:  m.SourceAssessmentID,
		EntityType:          models.EntityType(m.EntityType),
		EntityID:            m.EntityID,
		EntityName:          m.EntityName,
		Category:            models.Category(m.Category),
		AlertType:           m.AlertType,
		Title:               m.Title,
		Message:             m.Message,
		Description:         m.Description,
		RiskScore:           m.RiskScore,
		RiskLevel:           models.RiskLevel(m.RiskLevel),
		Priority:            models.Priority(m.Priority),
		InitialPriority:     models.Priority(m.InitialPriority),
		Status:              models.AlertStatus(m.Status),
		CreatedAt:           m.CreatedAt.UTC(),
		DueDate:             m.DueDate.UTC(),
		AcknowledgedBy:      m.AcknowledgedBy,
		AcknowledgedAt:      utcPtr(m.AcknowledgedAt),
		AcknowledgmentNotes: m.AcknowledgmentNotes,
		ResolvedBy:          m.ResolvedBy,
		ResolvedAt:          utcPtr(m.ResolvedAt),
		ResolutionNotes:     m.ResolutionNotes,
		EscalatedAt:         utcPtr(m.EscalatedAt),
		EscalationCount:     m.EscalationCount,
		LastReminderAt:      utcPtr(m.LastReminderAt),
		Version:             m.Version,
	}
	if m.MitigationSteps != "" {
		if err := json.Unmarshal([]byte(m.MitigationSteps), &a.MitigationSteps); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
