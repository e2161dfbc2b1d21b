package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/logger"
	"github.com/turtacn/riskengine/pkg/utils"
)

// LogProvider records deliveries in the log only. It stands in for a channel
// with no configured gateway.
type LogProvider struct {
	channel models.Channel
	logger  logger.Logger
}

func NewLogProvider(channel models.Channel, log logger.Logger) service.NotificationProvider {
	return &LogProvider{channel: channel, logger: log.WithComponent("notification_" + string(channel))}
}

func (p *LogProvider) Channel() models.Channel {
	return p.channel
}

func (p *LogProvider) Send(ctx context.Context, recipients []string, payload models.NotificationPayload) (models.SendReceipt, error) {
	p.logger.Info(ctx, "Notification",
		logger.String("channel", string(p.channel)),
		logger.String("kind", string(payload.Kind)),
		logger.String("alert_id", payload.AlertID),
		logger.String("title", payload.Title),
		logger.String("priority", string(payload.Priority)),
		logger.Any("recipients", maskRecipients(recipients)),
	)
	return models.SendReceipt{Channel: p.channel, MessageID: uuid.NewString()}, nil
}

func maskRecipients(recipients []string) []string {
	out := make([]string, len(recipients))
	for i, r := range recipients {
		out[i] = utils.MaskEmail(r)
	}
	return out
}
