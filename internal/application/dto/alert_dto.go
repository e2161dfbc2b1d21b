package dto

import (
	"github.com/turtacn/riskengine/internal/domain/models"
)

// AcknowledgeAlertRequest acknowledges an active alert.
type AcknowledgeAlertRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Notes  string `json:"notes,omitempty" validate:"max=2000"`
}

// ResolveAlertRequest resolves an alert.
type ResolveAlertRequest struct {
	UserID     string `json:"user_id" validate:"required,max=128"`
	Resolution string `json:"resolution" validate:"required,max=2000"`
}

// AlertListQuery filters alert listings and statistics.
type AlertListQuery struct {
	EntityType string `form:"entity_type" validate:"omitempty,oneof=property tenant portfolio"`
	EntityID   string `form:"entity_id" validate:"omitempty,entity_id"`
	Status     string `form:"status" validate:"omitempty,oneof=active acknowledged resolved"`
	Priority   string `form:"priority" validate:"omitempty,oneof=medium high urgent immediate"`
	Category   string `form:"category" validate:"omitempty"`
	Limit      int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset     int    `form:"offset" validate:"omitempty,min=0"`
}

// ToFilter converts the query into a domain filter.
func (q AlertListQuery) ToFilter() models.AlertFilter {
	return models.AlertFilter{
		EntityType: models.EntityType(q.EntityType),
		EntityID:   q.EntityID,
		Status:     models.AlertStatus(q.Status),
		Priority:   models.Priority(q.Priority),
		Category:   models.Category(q.Category),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
}
