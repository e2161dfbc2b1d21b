// Package notification implements the delivery channels used by the alert
// dispatcher.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

// MetadataRetryable marks a delivery error that must not be retried when false.
const MetadataRetryable = "retryable"

// webhookRequest is the body posted to an email or SMS gateway.
type webhookRequest struct {
	Channel    models.Channel             `json:"channel"`
	Recipients []string                   `json:"recipients"`
	Payload    models.NotificationPayload `json:"payload"`
}

type webhookResponse struct {
	MessageID string `json:"message_id"`
}

// WebhookProvider delivers a channel by POSTing JSON to a gateway URL.
type WebhookProvider struct {
	channel models.Channel
	url     string
	client  *http.Client
	logger  logger.Logger
}

// NewWebhookProvider creates a provider for channel posting to url.
func NewWebhookProvider(channel models.Channel, url string, timeout time.Duration, log logger.Logger) service.NotificationProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookProvider{
		channel: channel,
		url:     url,
		client:  &http.Client{Timeout: timeout},
		logger:  log.WithComponent("notification_" + string(channel)),
	}
}

func (p *WebhookProvider) Channel() models.Channel {
	return p.channel
}

func (p *WebhookProvider) Send(ctx context.Context, recipients []string, payload models.NotificationPayload) (models.SendReceipt, error) {
	body, err := json.Marshal(webhookRequest{Channel: p.channel, Recipients: recipients, Payload: payload})
	if err != nil {
		return models.SendReceipt{}, errors.ErrNotification(string(p.channel), "failed to encode payload").
			WithCause(err).
			WithMetadata(MetadataRetryable, false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return models.SendReceipt{}, errors.ErrNotification(string(p.channel), "invalid gateway request").
			WithCause(err).
			WithMetadata(MetadataRetryable, false)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", payload.AlertID+":"+string(payload.Kind)+":"+string(p.channel))

	resp, err := p.client.Do(req)
	if err != nil {
		return models.SendReceipt{}, errors.ErrNotification(string(p.channel), "gateway unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		p.logger.Warn(ctx, "Notification gateway rejected delivery",
			logger.Int("status", resp.StatusCode),
			logger.String("alert_id", payload.AlertID),
			logger.Bool("retryable", retryable),
		)
		return models.SendReceipt{}, errors.ErrNotification(string(p.channel),
			fmt.Sprintf("gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))).
			WithMetadata("status", resp.StatusCode).
			WithMetadata(MetadataRetryable, retryable)
	}

	var out webhookResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&out); err != nil || out.MessageID == "" {
		out.MessageID = uuid.NewString()
	}

	p.logger.Debug(ctx, "Notification delivered",
		logger.String("alert_id", payload.AlertID),
		logger.String("message_id", out.MessageID),
		logger.Int("recipients", len(recipients)),
	)
	return models.SendReceipt{Channel: p.channel, MessageID: out.MessageID}, nil
}
