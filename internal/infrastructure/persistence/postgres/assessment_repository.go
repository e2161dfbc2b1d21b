package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/repository"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

// AssessmentRepository is the gorm implementation of repository.AssessmentRepository.
type AssessmentRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(db *gorm.DB, log logger.Logger) repository.AssessmentRepository {
	return &AssessmentRepository{
		db:     db,
		logger: log.WithComponent("assessment_repository"),
	}
}

// Save inserts an assessment. Assessments are never updated after creation.
func (r *AssessmentRepository) Save(ctx context.Context, assessment *models.RiskAssessment) error {
	startTime := time.Now()

	dbm, err := assessmentFromDomain(assessment)
	if err != nil {
		return errors.ErrInternal("failed to encode assessment").WithCause(err)
	}
	if err := r.db.WithContext(ctx).Create(dbm).Error; err != nil {
		r.logger.Error(ctx, "Failed to save assessment", err,
			logger.String("assessment_id", assessment.ID),
			logger.String("entity_id", assessment.EntityID),
		)
		return errors.ErrUnavailable("failed to save assessment").WithCause(err)
	}

	r.logger.Debug(ctx, "Assessment saved",
		logger.String("assessment_id", assessment.ID),
		logger.String("entity_type", string(assessment.EntityType)),
		logger.String("entity_id", assessment.EntityID),
		logger.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)
	return nil
}

// FindByID retrieves an assessment by id.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.RiskAssessment, error) {
	var dbm AssessmentDBM
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbm).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("assessment", id)
		}
		r.logger.Error(ctx, "Failed to load assessment", err, logger.String("assessment_id", id))
		return nil, errors.ErrUnavailable("failed to load assessment").WithCause(err)
	}
	return r.decode(&dbm)
}

// ListByEntity returns an entity's assessments, newest first.
func (r *AssessmentRepository) ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, opts models.QueryOptions) ([]*models.RiskAssessment, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}

	query := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", string(entityType), entityID)
	if opts.AssessmentType != "" {
		query = query.Where("assessment_type = ?", string(opts.AssessmentType))
	}

	var rows []AssessmentDBM
	err := query.Order("assessment_date DESC").
		Limit(limit).
		Offset(opts.Offset).
		Find(&rows).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to list assessments", err,
			logger.String("entity_type", string(entityType)),
			logger.String("entity_id", entityID),
		)
		return nil, errors.ErrUnavailable("failed to list assessments").WithCause(err)
	}

	assessments := make([]*models.RiskAssessment, 0, len(rows))
	for i := range rows {
		a, err := r.decode(&rows[i])
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, nil
}

// LatestByEntity returns the newest assessment of an entity or nil.
func (r *AssessmentRepository) LatestByEntity(ctx context.Context, entityType models.EntityType, entityID string) (*models.RiskAssessment, error) {
	list, err := r.ListByEntity(ctx, entityType, entityID, models.QueryOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (r *AssessmentRepository) decode(dbm *AssessmentDBM) (*models.RiskAssessment, error) {
	a, err := dbm.toDomain()
	if err != nil {
		return nil, errors.ErrInternal("failed to decode assessment").
			WithCause(err).
			WithMetadata("assessment_id", dbm.ID)
	}
	return a, nil
}
