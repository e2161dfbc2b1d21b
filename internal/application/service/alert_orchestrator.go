package service

import (
	"context"
	"time"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/repository"
	domainService "github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/logger"
)

// AlertOrchestrator turns a completed assessment into persisted, published and
// dispatched alerts. Alert generation itself stays pure in the domain layer.
type AlertOrchestrator struct {
	generator  *domainService.AlertGenerator
	repo       repository.AlertRepository
	dispatcher NotificationDispatcher
	publisher  domainService.AlertEventPublisher
	recipients []string
	metrics    domainService.Metrics
	logger     logger.Logger
	clock      func() time.Time
}

// NewAlertOrchestrator creates an orchestrator. publisher may be nil.
func NewAlertOrchestrator(
	generator *domainService.AlertGenerator,
	repo repository.AlertRepository,
	dispatcher NotificationDispatcher,
	publisher domainService.AlertEventPublisher,
	recipients []string,
	metrics domainService.Metrics,
	log logger.Logger,
) *AlertOrchestrator {
	if metrics == nil {
		metrics = domainService.NoopMetrics{}
	}
	return &AlertOrchestrator{
		generator:  generator,
		repo:       repo,
		dispatcher: dispatcher,
		publisher:  publisher,
		recipients: recipients,
		metrics:    metrics,
		logger:     log.WithComponent("alert_orchestrator"),
		clock:      time.Now,
	}
}

// Process derives alerts from assessment, stores them and notifies. Delivery
// failures are logged and never undo alert creation.
func (o *AlertOrchestrator) Process(ctx context.Context, assessment *models.RiskAssessment) ([]*models.Alert, error) {
	name := assessment.EntityName
	if name == "" {
		name = assessment.EntityID
	}

	now := o.clock().UTC()
	alerts := o.generator.Generate(assessment, name, now)
	if len(alerts) == 0 {
		return nil, nil
	}

	if err := o.repo.Create(ctx, alerts); err != nil {
		o.logger.Error(ctx, "Failed to persist alerts", err,
			logger.String("assessment_id", assessment.ID),
			logger.Int("count", len(alerts)),
		)
		return nil, err
	}

	for _, a := range alerts {
		o.metrics.RecordAlertCreated(a.AlertType, string(a.Priority))
		publishEvent(ctx, o.publisher, o.logger, domainService.AlertEventCreated, a, now)

		result := o.dispatcher.Dispatch(ctx, a, models.DispatchOptions{
			Kind:       models.NotificationKindAlert,
			Recipients: o.recipients,
		})
		o.logger.Info(ctx, "Alert raised",
			logger.String("alert_id", a.ID),
			logger.String("alert_type", a.AlertType),
			logger.String("priority", string(a.Priority)),
			logger.Bool("notified", result.Success),
		)
	}
	return alerts, nil
}

func publishEvent(ctx context.Context, p domainService.AlertEventPublisher, log logger.Logger, t domainService.AlertEventType, a *models.Alert, now time.Time) {
	if p == nil {
		return
	}
	snapshot := *a
	err := p.Publish(ctx, domainService.AlertEvent{Type: t, OccurredAt: now, Alert: &snapshot})
	if err != nil {
		log.Warn(ctx, "Alert event not published",
			logger.String("alert_id", a.ID),
			logger.String("event_type", string(t)),
			logger.Error(err),
		)
	}
}
