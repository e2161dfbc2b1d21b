package repository

import (
	"context"

	"github.com/turtacn/riskengine/internal/domain/models"
)

// AlertRepository stores alerts with optimistic versioning.
type AlertRepository interface {
	// Create persists new alerts in one transaction.
	Create(ctx context.Context, alerts []*models.Alert) error

	// FindByID returns the alert with the given id or a not_found error.
	FindByID(ctx context.Context, id string) (*models.Alert, error)

	// Update writes alert if its stored version still equals alert.Version and
	// bumps the version on success. A stale version yields a conflict error.
	Update(ctx context.Context, alert *models.Alert) error

	// List returns alerts matching filter, newest first.
	List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)

	// ListActive returns every active alert, oldest due date first.
	ListActive(ctx context.Context) ([]*models.Alert, error)
}
