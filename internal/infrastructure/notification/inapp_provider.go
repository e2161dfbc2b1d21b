package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/errors"
)

// InboxStore persists in-app notifications.
type InboxStore interface {
	Push(ctx context.Context, recipients []string, payload models.NotificationPayload) error
}

// InAppProvider writes notifications to recipients' inboxes.
type InAppProvider struct {
	store InboxStore
}

// NewInAppProvider creates the in-app channel over store.
func NewInAppProvider(store InboxStore) service.NotificationProvider {
	return &InAppProvider{store: store}
}

func (p *InAppProvider) Channel() models.Channel {
	return models.ChannelInApp
}

func (p *InAppProvider) Send(ctx context.Context, recipients []string, payload models.NotificationPayload) (models.SendReceipt, error) {
	if err := p.store.Push(ctx, recipients, payload); err != nil {
		return models.SendReceipt{}, errors.ErrNotification(string(models.ChannelInApp), "inbox write failed").WithCause(err)
	}
	return models.SendReceipt{Channel: models.ChannelInApp, MessageID: uuid.NewString()}, nil
}
