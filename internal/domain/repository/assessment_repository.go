package repository

import (
	"context"

	"github.com/turtacn/riskengine/internal/domain/models"
)

// AssessmentRepository is an append-only store of risk assessments.
type AssessmentRepository interface {
	// Save persists a new assessment. Existing assessments are never updated.
	Save(ctx context.Context, assessment *models.RiskAssessment) error

	// FindByID returns the assessment with the given id or a not_found error.
	FindByID(ctx context.Context, id string) (*models.RiskAssessment, error)

	// ListByEntity returns an entity's assessments, newest first.
	ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, opts models.QueryOptions) ([]*models.RiskAssessment, error)

	// LatestByEntity returns the newest assessment for an entity, or (nil, nil) if there is none.
	LatestByEntity(ctx context.Context, entityType models.EntityType, entityID string) (*models.RiskAssessment, error)
}
