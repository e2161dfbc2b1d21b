package postgres

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/repository"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

// AlertRepository is the gorm implementation of repository.AlertRepository.
type AlertRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *gorm.DB, log logger.Logger) repository.AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: log.WithComponent("alert_repository"),
	}
}

// Create inserts alerts in a single transaction. New alerts start at version 1.
func (r *AlertRepository) Create(ctx context.Context, alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	rows := make([]*AlertDBM, 0, len(alerts))
	for _, a := range alerts {
		if a.Version == 0 {
			a.Version = 1
		}
		dbm, err := alertFromDomain(a)
		if err != nil {
			return errors.ErrInternal("failed to encode alert").WithCause(err)
		}
		rows = append(rows, dbm)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		r.logger.Error(ctx, "Failed to create alerts", err, logger.Int("count", len(alerts)))
		return errors.ErrUnavailable("failed to create alerts").WithCause(err)
	}
	return nil
}

// FindByID retrieves an alert by id.
func (r *AlertRepository) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	var dbm AlertDBM
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbm).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("alert", id)
		}
		r.logger.Error(ctx, "Failed to load alert", err, logger.String("alert_id", id))
		return nil, errors.ErrUnavailable("failed to load alert").WithCause(err)
	}
	return r.decode(&dbm)
}

// Update performs a compare-and-set on the alert version.
func (r *AlertRepository) Update(ctx context.Context, alert *models.Alert) error {
	dbm, err := alertFromDomain(alert)
	if err != nil {
		return errors.ErrInternal("failed to encode alert").WithCause(err)
	}

	result := r.db.WithContext(ctx).
		Model(&AlertDBM{}).
		Where("id = ? AND version = ?", alert.ID, alert.Version).
		Updates(map[string]interface{}{
			"priority":             dbm.Priority,
			"status":               dbm.Status,
			"acknowledged_by":      dbm.AcknowledgedBy,
			"acknowledged_at":      dbm.AcknowledgedAt,
			"acknowledgment_notes": dbm.AcknowledgmentNotes,
			"resolved_by":          dbm.ResolvedBy,
			"resolved_at":          dbm.ResolvedAt,
			"resolution_notes":     dbm.ResolutionNotes,
			"escalated_at":         dbm.EscalatedAt,
			"escalation_count":     dbm.EscalationCount,
			"last_reminder_at":     dbm.LastReminderAt,
			"version":              alert.Version + 1,
		})
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to update alert", result.Error, logger.String("alert_id", alert.ID))
		return errors.ErrUnavailable("failed to update alert").WithCause(result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, alert.ID); err != nil {
			return err
		}
		r.logger.Warn(ctx, "Alert version conflict",
			logger.String("alert_id", alert.ID),
			logger.Int64("version", alert.Version),
		)
		return errors.ErrConflict("alert was modified concurrently").
			WithMetadata("alert_id", alert.ID)
	}

	alert.Version++
	return nil
}

// List returns alerts matching filter, newest first.
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	query := r.db.WithContext(ctx).Model(&AlertDBM{})
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", string(filter.EntityType))
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", string(filter.Priority))
	}
	if filter.Category != "" {
		query = query.Where("category = ?", string(filter.Category))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []AlertDBM
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		r.logger.Error(ctx, "Failed to list alerts", err)
		return nil, errors.ErrUnavailable("failed to list alerts").WithCause(err)
	}
	return r.decodeAll(rows)
}

// ListActive returns active alerts, earliest due date first.
func (r *AlertRepository) ListActive(ctx context.Context) ([]*models.Alert, error) {
	var rows []AlertDBM
	err := r.db.WithContext(ctx).
		Where("status = ?", string(models.AlertStatusActive)).
		Order("due_date ASC").
		Find(&rows).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to list active alerts", err)
		return nil, errors.ErrUnavailable("failed to list active alerts").WithCause(err)
	}
	return r.decodeAll(rows)
}

func (r *AlertRepository) decodeAll(rows []AlertDBM) ([]*models.Alert, error) {
	alerts := make([]*models.Alert, 0, len(rows))
	for i := range rows {
		a, err := r.decode(&rows[i])
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

func (r *AlertRepository) decode(dbm *AlertDBM) (*models.Alert, error) {
	a, err := dbm.toDomain()
	if err != nil {
		return nil, errors.ErrInternal("failed to decode alert").
			WithCause(err).
			WithMetadata("alert_id", dbm.ID)
	}
	return a, nil
}
