package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/errors"
)

// Inbox stores in-app notifications in one capped list per recipient,
// newest first.
type Inbox struct {
	client redis.UniversalClient
	maxLen int64
}

// NewInbox creates an inbox keeping at most maxLen entries per recipient.
func NewInbox(client redis.UniversalClient, maxLen int) *Inbox {
	if maxLen <= 0 {
		maxLen = constants.InAppInboxMaxLen
	}
	return &Inbox{client: client, maxLen: int64(maxLen)}
}

func inboxKey(recipient string) string {
	return constants.InAppInboxKeyPrefix + recipient
}

// Push appends payload to every recipient's inbox in one pipeline.
func (i *Inbox) Push(ctx context.Context, recipients []string, payload models.NotificationPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.ErrInternal("failed to encode notification").WithCause(err)
	}

	pipe := i.client.TxPipeline()
	for _, r := range recipients {
		key := inboxKey(r)
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, i.maxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.ErrUnavailable("inbox write failed").WithCause(err)
	}
	return nil
}

// Recent returns up to limit notifications for recipient, newest first.
func (i *Inbox) Recent(ctx context.Context, recipient string, limit int) ([]models.NotificationPayload, error) {
	if limit <= 0 || int64(limit) > i.maxLen {
		limit = int(i.maxLen)
	}
	raw, err := i.client.LRange(ctx, inboxKey(recipient), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.ErrUnavailable("inbox read failed").WithCause(err)
	}

	out := make([]models.NotificationPayload, 0, len(raw))
	for _, item := range raw {
		var p models.NotificationPayload
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, errors.ErrInternal("corrupt inbox entry").WithCause(err)
		}
		out = append(out, p)
	}
	return out, nil
}
