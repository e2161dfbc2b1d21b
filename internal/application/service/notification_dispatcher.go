package service

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/multierr"

	"github.com/turtacn/riskengine/internal/config"
	"github.com/turtacn/riskengine/internal/domain/models"
	domainService "github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

const (
	escalationTitlePrefix   = "ESCALATED: "
	escalationMessageSuffix = " - Requires immediate attention"
	reminderTitlePrefix     = "REMINDER: "
	reminderMessageSuffix   = " - This alert is now overdue and requires immediate attention."
)

// channelOrder fixes the order channels are reported in.
var channelOrder = []models.Channel{models.ChannelEmail, models.ChannelInApp, models.ChannelSMS}

// NotificationDispatcher routes an alert to its delivery channels.
type NotificationDispatcher interface {
	// Dispatch sends alert over every selected channel. It never fails as a
	// whole; per-channel failures are reported in the result.
	Dispatch(ctx context.Context, alert *models.Alert, opts models.DispatchOptions) models.DispatchResult
}

// RetryPolicy bounds delivery attempts per channel.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// RetryPolicyFromConfig reads the retry settings of cfg.
func RetryPolicyFromConfig(cfg config.NotificationConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}
}

type notificationDispatcherImpl struct {
	providers map[models.Channel]domainService.NotificationProvider
	retry     RetryPolicy
	metrics   domainService.Metrics
	logger    logger.Logger
	clock     func() time.Time
}

// NewNotificationDispatcher creates a dispatcher over providers. Channels
// without a provider are never attempted.
func NewNotificationDispatcher(
	providers []domainService.NotificationProvider,
	retry RetryPolicy,
	metrics domainService.Metrics,
	log logger.Logger,
) NotificationDispatcher {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = constants.DefaultNotificationMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = constants.DefaultNotificationInitialBackoff
	}
	if retry.MaxBackoff <= 0 {
		retry.MaxBackoff = constants.DefaultNotificationMaxBackoff
	}
	if metrics == nil {
		metrics = domainService.NoopMetrics{}
	}

	byChannel := make(map[models.Channel]domainService.NotificationProvider, len(providers))
	for _, p := range providers {
		byChannel[p.Channel()] = p
	}
	return &notificationDispatcherImpl{
		providers: byChannel,
		retry:     retry,
		metrics:   metrics,
		logger:    log.WithComponent("notification_dispatcher"),
		clock:     time.Now,
	}
}

// selectChannels applies the routing policy: email and in-app unless
// disabled, sms only for immediate priority. Reminders go in-app only.
func selectChannels(alert *models.Alert, opts models.DispatchOptions) []models.Channel {
	var channels []models.Channel
	if opts.Kind != models.NotificationKindReminder && !opts.DisableEmail {
		channels = append(channels, models.ChannelEmail)
	}
	if !opts.DisableInApp {
		channels = append(channels, models.ChannelInApp)
	}
	if opts.Kind != models.NotificationKindReminder && !opts.DisableSMS && alert.Priority == models.PriorityImmediate {
		channels = append(channels, models.ChannelSMS)
	}
	return channels
}

func (d *notificationDispatcherImpl) payloadFor(alert *models.Alert, kind models.NotificationKind) models.NotificationPayload {
	p := models.NotificationPayload{
		Kind:       kind,
		AlertID:    alert.ID,
		AlertType:  alert.AlertType,
		EntityType: alert.EntityType,
		EntityID:   alert.EntityID,
		Title:      alert.Title,
		Message:    alert.Message,
		Priority:   alert.Priority,
		RiskScore:  alert.RiskScore,
		DueDate:    alert.DueDate,
		SentAt:     d.clock().UTC(),
	}
	switch kind {
	case models.NotificationKindEscalation:
		p.Title = escalationTitlePrefix + alert.Title
		p.Message = escalationTitlePrefix + alert.Message + escalationMessageSuffix
	case models.NotificationKindReminder:
		p.Title = reminderTitlePrefix + alert.Title
		p.Message = reminderTitlePrefix + alert.Message + reminderMessageSuffix
	}
	return p
}

func (d *notificationDispatcherImpl) Dispatch(ctx context.Context, alert *models.Alert, opts models.DispatchOptions) models.DispatchResult {
	if opts.Kind == "" {
		opts.Kind = models.NotificationKindAlert
	}
	payload := d.payloadFor(alert, opts.Kind)

	var attempted []models.Channel
	for _, ch := range selectChannels(alert, opts) {
		if _, ok := d.providers[ch]; ok {
			attempted = append(attempted, ch)
		}
	}

	errs := make([]error, len(attempted))
	var wg sync.WaitGroup
	for i, ch := range attempted {
		wg.Add(1)
		go func(i int, ch models.Channel) {
			defer wg.Done()
			errs[i] = d.sendWithRetry(ctx, d.providers[ch], opts.Recipients, payload)
			d.metrics.RecordNotification(string(ch), string(opts.Kind), errs[i] == nil)
		}(i, ch)
	}
	wg.Wait()

	var combined error
	for _, err := range errs {
		combined = multierr.Append(combined, err)
	}

	result := models.DispatchResult{
		AlertID:  alert.ID,
		Success:  combined == nil,
		Channels: orderChannels(attempted),
	}
	for _, err := range multierr.Errors(combined) {
		result.Errors = append(result.Errors, err.Error())
	}

	if combined != nil {
		d.logger.Warn(ctx, "Notification dispatch incomplete",
			logger.String("alert_id", alert.ID),
			logger.String("kind", string(opts.Kind)),
			logger.Int("failed_channels", len(result.Errors)),
			logger.Error(combined),
		)
	}
	return result
}

func (d *notificationDispatcherImpl) sendWithRetry(ctx context.Context, p domainService.NotificationProvider, recipients []string, payload models.NotificationPayload) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = d.retry.InitialBackoff
	eb.MaxInterval = d.retry.MaxBackoff
	eb.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(d.retry.MaxAttempts-1)), ctx)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		_, err := p.Send(ctx, recipients, payload)
		if err != nil && !retryableDelivery(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	if err != nil {
		d.logger.Debug(ctx, "Notification channel failed",
			logger.String("channel", string(p.Channel())),
			logger.String("alert_id", payload.AlertID),
			logger.Int("attempts", attempt),
		)
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code() == constants.ErrCodeNotification {
			return err
		}
		return errors.ErrNotification(string(p.Channel()), "delivery failed").WithCause(err)
	}
	return nil
}

// retryableDelivery reports whether a provider error may succeed on retry.
// Providers mark gateway rejections with retryable=false.
func retryableDelivery(err error) bool {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return true
	}
	if v, ok := appErr.Metadata()["retryable"].(bool); ok {
		return v
	}
	return !errors.IsValidation(err)
}

func orderChannels(channels []models.Channel) []models.Channel {
	out := make([]models.Channel, 0, len(channels))
	for _, ch := range channelOrder {
		for _, c := range channels {
			if c == ch {
				out = append(out, ch)
			}
		}
	}
	return out
}
