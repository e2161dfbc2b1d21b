package service

import (
	"context"
	"time"

	"github.com/turtacn/riskengine/internal/domain/models"
)

//go:generate mockery --name SnapshotProvider --output mocks --outpkg mocks
// SnapshotProvider supplies consistent point-in-time entity attributes.
// SnapshotProvider 提供一致的时间点实体属性快照。
type SnapshotProvider interface {
	// GetEntitySnapshot returns the entity's attributes or a not_found error.
	// GetEntitySnapshot 返回实体属性，实体不存在时返回 not_found 错误。
	GetEntitySnapshot(ctx context.Context, entityType models.EntityType, entityID string) (*models.EntitySnapshot, error)

	// ListEntities enumerates the entities of a type for portfolio runs.
	// ListEntities 列出某一类型的全部实体，用于组合评估。
	ListEntities(ctx context.Context, entityType models.EntityType) ([]models.EntityRef, error)
}

//go:generate mockery --name NotificationProvider --output mocks --outpkg mocks
// NotificationProvider delivers a payload over one channel. Calls are opaque and retryable.
// NotificationProvider 通过单一渠道投递通知，调用是不透明且可重试的。
type NotificationProvider interface {
	// Channel returns the channel this provider serves.
	Channel() models.Channel

	// Send delivers payload to recipients.
	// Send 将通知投递给接收者。
	Send(ctx context.Context, recipients []string, payload models.NotificationPayload) (models.SendReceipt, error)
}

// AlertEventType names an alert lifecycle event.
type AlertEventType string

const (
	AlertEventCreated      AlertEventType = "alert.created"
	AlertEventAcknowledged AlertEventType = "alert.acknowledged"
	AlertEventResolved     AlertEventType = "alert.resolved"
	AlertEventEscalated    AlertEventType = "alert.escalated"
)

// AlertEvent is published whenever an alert changes.
type AlertEvent struct {
	Type       AlertEventType `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Alert      *models.Alert  `json:"alert"`
}

//go:generate mockery --name AlertEventPublisher --output mocks --outpkg mocks
// AlertEventPublisher publishes alert lifecycle events to downstream consumers.
// AlertEventPublisher 将告警生命周期事件发布给下游消费者。
type AlertEventPublisher interface {
	Publish(ctx context.Context, event AlertEvent) error
}

//go:generate mockery --name SweepLock --output mocks --outpkg mocks
// SweepLock provides cross-process mutual exclusion for alert sweeps.
// SweepLock 为告警巡检提供跨进程互斥。
type SweepLock interface {
	// TryAcquire attempts to take the lock without blocking. The returned
	// release func is nil when the lock was not acquired.
	// TryAcquire 非阻塞地尝试获取锁，未获取时返回的 release 为 nil。
	TryAcquire(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}
