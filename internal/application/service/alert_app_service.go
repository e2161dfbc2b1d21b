package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/riskengine/internal/config"
	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/repository"
	domainService "github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
	"github.com/turtacn/riskengine/pkg/utils"
)

const (
	// maxTransitionAttempts bounds reload-and-retry after a lost version race.
	maxTransitionAttempts = 3

	defaultAlertListLimit = 50
	maxAlertListLimit     = 500
)

// Escalation outcomes reported when nothing changed.
const (
	reasonNotActive     = "alert is not active"
	reasonNotOverdue    = "alert is not overdue"
	reasonConcurrentMod = "alert was modified concurrently"
)

// AlertLifecycleService defines the application service for alert state changes and queries.
type AlertLifecycleService interface {
	// AcknowledgeAlert moves an active alert to acknowledged.
	AcknowledgeAlert(ctx context.Context, alertID, userID, notes string) (*models.Alert, error)

	// ResolveAlert moves an active or acknowledged alert to resolved.
	ResolveAlert(ctx context.Context, alertID, userID, resolution string) (*models.Alert, error)

	// EscalateAlert raises the priority of an overdue active alert.
	EscalateAlert(ctx context.Context, alertID string) (*models.EscalationResult, error)

	// ProcessAlertQueue sweeps active alerts, escalating and reminding overdue ones.
	ProcessAlertQueue(ctx context.Context) (*models.SweepResult, error)

	GetAlert(ctx context.Context, alertID string) (*models.Alert, error)
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
	ListEntityAlerts(ctx context.Context, entityType models.EntityType, entityID string, filter models.AlertFilter) ([]*models.Alert, error)
	GetAlertStatistics(ctx context.Context, filter models.AlertFilter) (*models.AlertStatistics, error)
}

// AlertSettings tunes escalation, reminders and recipients.
type AlertSettings struct {
	ReminderInterval   time.Duration
	Recipients         []string
	EscalationContacts []string
}

// AlertSettingsFromConfig reads the alerts section of cfg.
func AlertSettingsFromConfig(cfg config.AlertsConfig) AlertSettings {
	return AlertSettings{
		ReminderInterval:   cfg.ReminderInterval,
		Recipients:         cfg.Recipients,
		EscalationContacts: cfg.EscalationContacts,
	}
}

type alertLifecycleServiceImpl struct {
	alerts     repository.AlertRepository
	dispatcher NotificationDispatcher
	publisher  domainService.AlertEventPublisher
	sweepLock  domainService.SweepLock
	settings   AlertSettings
	metrics    domainService.Metrics
	logger     logger.Logger
	clock      func() time.Time

	escalations singleflight.Group
	sweepMu     sync.Mutex
}

// NewAlertLifecycleService creates a new AlertLifecycleService. publisher and
// sweepLock may be nil; without a lock sweeps are only exclusive in-process.
func NewAlertLifecycleService(
	alerts repository.AlertRepository,
	dispatcher NotificationDispatcher,
	publisher domainService.AlertEventPublisher,
	sweepLock domainService.SweepLock,
	settings AlertSettings,
	metrics domainService.Metrics,
	log logger.Logger,
) AlertLifecycleService {
	if settings.ReminderInterval <= 0 {
		settings.ReminderInterval = constants.DefaultReminderInterval
	}
	if len(settings.EscalationContacts) == 0 {
		settings.EscalationContacts = settings.Recipients
	}
	if metrics == nil {
		metrics = domainService.NoopMetrics{}
	}
	return &alertLifecycleServiceImpl{
		alerts:     alerts,
		dispatcher: dispatcher,
		publisher:  publisher,
		sweepLock:  sweepLock,
		settings:   settings,
		metrics:    metrics,
		logger:     log.WithComponent("alert_service"),
		clock:      time.Now,
	}
}

// transition applies fn to the stored alert and writes it back. A lost
// version race reloads the alert and re-applies fn, so fn must re-check state.
func (s *alertLifecycleServiceImpl) transition(ctx context.Context, alertID string, fn func(*models.Alert) error) (*models.Alert, error) {
	var lastErr error
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		alert, err := s.alerts.FindByID(ctx, alertID)
		if err != nil {
			return nil, err
		}
		if err := fn(alert); err != nil {
			return nil, err
		}
		err = s.alerts.Update(ctx, alert)
		if err == nil {
			return alert, nil
		}
		if !errors.IsConflict(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug(ctx, "Alert version race, retrying",
			logger.String("alert_id", alertID),
			logger.Int("attempt", attempt+1),
		)
	}
	return nil, lastErr
}

func (s *alertLifecycleServiceImpl) AcknowledgeAlert(ctx context.Context, alertID, userID, notes string) (*models.Alert, error) {
	if err := validateActor(alertID, userID); err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	alert, err := s.transition(ctx, alertID, func(a *models.Alert) error {
		return a.Acknowledge(userID, notes, now)
	})
	s.metrics.RecordAlertTransition("acknowledge", err == nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Alert acknowledged",
		logger.String("alert_id", alertID),
		logger.String("user_id", userID),
	)
	publishEvent(ctx, s.publisher, s.logger, domainService.AlertEventAcknowledged, alert, now)
	return alert, nil
}

func (s *alertLifecycleServiceImpl) ResolveAlert(ctx context.Context, alertID, userID, resolution string) (*models.Alert, error) {
	if err := validateActor(alertID, userID); err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	alert, err := s.transition(ctx, alertID, func(a *models.Alert) error {
		return a.Resolve(userID, resolution, now)
	})
	s.metrics.RecordAlertTransition("resolve", err == nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Alert resolved",
		logger.String("alert_id", alertID),
		logger.String("user_id", userID),
	)
	publishEvent(ctx, s.publisher, s.logger, domainService.AlertEventResolved, alert, now)
	return alert, nil
}

func validateActor(alertID, userID string) error {
	if !utils.ValidateNotEmpty(alertID) {
		return errors.ErrValidation("alert id is required")
	}
	if !utils.ValidateNotEmpty(userID) {
		return errors.ErrValidation("user id is required")
	}
	return nil
}

// escalationOutcome carries what the sweep needs beyond the public result.
type escalationOutcome struct {
	result   *models.EscalationResult
	notified bool
}

func (s *alertLifecycleServiceImpl) EscalateAlert(ctx context.Context, alertID string) (*models.EscalationResult, error) {
	if !utils.ValidateNotEmpty(alertID) {
		return nil, errors.ErrValidation("alert id is required")
	}
	out, err := s.escalate(ctx, alertID)
	if err != nil {
		return nil, err
	}
	return out.result, nil
}

// escalate runs at most once at a time per alert id within this process.
// Across processes the versioned update keeps a single winner.
func (s *alertLifecycleServiceImpl) escalate(ctx context.Context, alertID string) (*escalationOutcome, error) {
	v, err, _ := s.escalations.Do(alertID, func() (interface{}, error) {
		return s.doEscalate(ctx, alertID)
	})
	if err != nil {
		s.metrics.RecordAlertTransition("escalate", false)
		return nil, err
	}
	return v.(*escalationOutcome), nil
}

func (s *alertLifecycleServiceImpl) doEscalate(ctx context.Context, alertID string) (*escalationOutcome, error) {
	alert, err := s.alerts.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	result := &models.EscalationResult{AlertID: alertID}
	if reason := escalationBlocker(alert, now); reason != "" {
		result.Reason = reason
		return &escalationOutcome{result: result}, nil
	}

	next := domainService.NextPriority(alert.Priority)
	if !alert.RaisePriority(next, now) {
		alert.MarkEscalated(now)
	}

	if err := s.alerts.Update(ctx, alert); err != nil {
		if errors.IsConflict(err) {
			result.Reason = reasonConcurrentMod
			return &escalationOutcome{result: result}, nil
		}
		return nil, err
	}
	s.metrics.RecordAlertTransition("escalate", true)

	result.Escalated = true
	result.NewPriority = alert.Priority
	result.EscalatedAt = alert.EscalatedAt

	s.logger.Warn(ctx, "Alert escalated",
		logger.String("alert_id", alert.ID),
		logger.String("priority", string(alert.Priority)),
		logger.Int("escalation_count", alert.EscalationCount),
	)
	publishEvent(ctx, s.publisher, s.logger, domainService.AlertEventEscalated, alert, now)

	dispatch := s.dispatcher.Dispatch(ctx, alert, models.DispatchOptions{
		Kind:       models.NotificationKindEscalation,
		Recipients: s.settings.EscalationContacts,
	})
	return &escalationOutcome{result: result, notified: dispatch.Success}, nil
}

// escalationBlocker returns why alert cannot escalate at now, or "".
// Every call on an active overdue alert escalates; immediate stays immediate.
func escalationBlocker(alert *models.Alert, now time.Time) string {
	if !alert.IsActive() {
		return reasonNotActive
	}
	if !alert.IsOverdue(now) {
		return reasonNotOverdue
	}
	return ""
}

func (s *alertLifecycleServiceImpl) ProcessAlertQueue(ctx context.Context) (*models.SweepResult, error) {
	start := s.clock()
	if !s.sweepMu.TryLock() {
		s.logger.Info(ctx, "Alert sweep already running, skipping")
		s.metrics.RecordSweep(0, 0, 0, 0, true, 0)
		return &models.SweepResult{Skipped: true}, nil
	}
	defer s.sweepMu.Unlock()

	if s.sweepLock != nil {
		release, acquired, err := s.sweepLock.TryAcquire(ctx)
		if err != nil {
			s.logger.Warn(ctx, "Sweep lock unavailable, skipping", logger.Error(err))
			s.metrics.RecordSweep(0, 0, 0, 0, true, 0)
			return &models.SweepResult{Skipped: true}, nil
		}
		if !acquired {
			s.logger.Info(ctx, "Alert sweep held by another instance, skipping")
			s.metrics.RecordSweep(0, 0, 0, 0, true, 0)
			return &models.SweepResult{Skipped: true}, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn(ctx, "Failed to release sweep lock", logger.Error(err))
			}
		}()
	}

	ctx, span := otel.Tracer(constants.ServiceName).Start(ctx, "AlertService.ProcessAlertQueue")
	defer span.End()

	active, err := s.alerts.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Alert sweep could not list active alerts", err)
		return nil, err
	}

	result := &models.SweepResult{}
	for _, alert := range active {
		if ctx.Err() != nil {
			break
		}
		result.Processed++
		s.sweepOne(ctx, alert, result)
	}

	elapsed := s.clock().Sub(start)
	s.metrics.RecordSweep(result.Processed, result.Escalated, result.NotificationsSent, result.Errors, false, elapsed)
	span.SetAttributes(
		attribute.Int("sweep.processed", result.Processed),
		attribute.Int("sweep.escalated", result.Escalated),
		attribute.Int("sweep.errors", result.Errors),
	)
	s.logger.Info(ctx, "Alert sweep completed",
		logger.Int("processed", result.Processed),
		logger.Int("escalated", result.Escalated),
		logger.Int("notifications_sent", result.NotificationsSent),
		logger.Int("errors", result.Errors),
		logger.Duration("elapsed", elapsed),
	)
	return result, nil
}

// sweepOne escalates an overdue alert and then reminds its recipients.
// Errors are counted, never returned.
func (s *alertLifecycleServiceImpl) sweepOne(ctx context.Context, alert *models.Alert, result *models.SweepResult) {
	now := s.clock().UTC()
	if !alert.IsOverdue(now) {
		return
	}

	out, err := s.escalate(ctx, alert.ID)
	if err != nil {
		result.Errors++
		s.logger.Warn(ctx, "Escalation failed during sweep",
			logger.String("alert_id", alert.ID),
			logger.Error(err),
		)
		return
	}
	if out.result.Escalated {
		result.Escalated++
		if out.notified {
			result.NotificationsSent++
		}
	}

	sent, err := s.remind(ctx, alert, now)
	if err != nil {
		result.Errors++
		s.logger.Warn(ctx, "Reminder failed during sweep",
			logger.String("alert_id", alert.ID),
			logger.Error(err),
		)
		return
	}
	if sent {
		result.NotificationsSent++
	}
}

// remind claims the reminder slot through a versioned update before sending,
// so concurrent sweepers send at most one reminder per interval.
func (s *alertLifecycleServiceImpl) remind(ctx context.Context, alert *models.Alert, now time.Time) (bool, error) {
	current, err := s.alerts.FindByID(ctx, alert.ID)
	if err != nil {
		return false, err
	}
	if !current.IsOverdue(now) {
		return false, nil
	}
	if current.LastReminderAt != nil && now.Sub(*current.LastReminderAt) < s.settings.ReminderInterval {
		return false, nil
	}

	current.LastReminderAt = &now
	if err := s.alerts.Update(ctx, current); err != nil {
		if errors.IsConflict(err) {
			return false, nil
		}
		return false, err
	}

	dispatch := s.dispatcher.Dispatch(ctx, current, models.DispatchOptions{
		Kind:       models.NotificationKindReminder,
		Recipients: s.settings.Recipients,
	})
	return dispatch.Success, nil
}

func (s *alertLifecycleServiceImpl) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	if !utils.ValidateNotEmpty(alertID) {
		return nil, errors.ErrValidation("alert id is required")
	}
	return s.alerts.FindByID(ctx, alertID)
}

func validateAlertFilter(filter *models.AlertFilter) error {
	if filter.EntityType != "" && !filter.EntityType.Valid() {
		return errors.ErrValidation(fmt.Sprintf("unknown entity type %q", filter.EntityType))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return errors.ErrValidation(fmt.Sprintf("unknown alert status %q", filter.Status))
	}
	if filter.Priority != "" && filter.Priority.Rank() == 0 {
		return errors.ErrValidation(fmt.Sprintf("unknown priority %q", filter.Priority))
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return errors.ErrValidation(fmt.Sprintf("unknown category %q", filter.Category))
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return nil
}

func (s *alertLifecycleServiceImpl) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	if err := validateAlertFilter(&filter); err != nil {
		return nil, err
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultAlertListLimit
	case filter.Limit > maxAlertListLimit:
		filter.Limit = maxAlertListLimit
	}
	return s.alerts.List(ctx, filter)
}

func (s *alertLifecycleServiceImpl) ListEntityAlerts(ctx context.Context, entityType models.EntityType, entityID string, filter models.AlertFilter) ([]*models.Alert, error) {
	if err := validateHistoryQuery(entityType, entityID); err != nil {
		return nil, err
	}
	filter.EntityType = entityType
	filter.EntityID = entityID
	return s.ListAlerts(ctx, filter)
}

func (s *alertLifecycleServiceImpl) GetAlertStatistics(ctx context.Context, filter models.AlertFilter) (*models.AlertStatistics, error) {
	if err := validateAlertFilter(&filter); err != nil {
		return nil, err
	}
	filter.Limit = 0
	filter.Offset = 0

	alerts, err := s.alerts.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	stats := &models.AlertStatistics{
		Total:      len(alerts),
		ByStatus:   make(map[models.AlertStatus]int),
		ByPriority: make(map[models.Priority]int),
		ByCategory: make(map[string]int),
	}
	for _, a := range alerts {
		stats.ByStatus[a.Status]++
		stats.ByPriority[a.Priority]++
		category := string(a.Category)
		if category == "" {
			category = models.OverallRiskAlertType
		}
		stats.ByCategory[category]++
		if a.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}
