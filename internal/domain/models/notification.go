package models

import "time"

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelInApp Channel = "in_app"
	ChannelSMS   Channel = "sms"
)

// NotificationKind distinguishes first notices from escalations and reminders.
type NotificationKind string

const (
	NotificationKindAlert      NotificationKind = "alert"
	NotificationKindEscalation NotificationKind = "escalation"
	NotificationKindReminder   NotificationKind = "reminder"
)

// NotificationPayload is the channel-independent body of a notification.
type NotificationPayload struct {
	Kind       NotificationKind `json:"kind"`
	AlertID    string           `json:"alert_id"`
	AlertType  string           `json:"alert_type"`
	EntityType EntityType       `json:"entity_type"`
	EntityID   string           `json:"entity_id"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Priority   Priority         `json:"priority"`
	RiskScore  float64          `json:"risk_score"`
	DueDate    time.Time        `json:"due_date"`
	SentAt     time.Time        `json:"sent_at"`
}

// SendReceipt is returned by a provider after a successful delivery.
type SendReceipt struct {
	Channel   Channel `json:"channel"`
	MessageID string  `json:"message_id"`
}

// DispatchOptions control channel selection for one dispatch.
type DispatchOptions struct {
	Kind         NotificationKind
	Recipients   []string
	DisableEmail bool
	DisableInApp bool
	DisableSMS   bool
}

// DispatchResult reports which channels were attempted and what failed.
type DispatchResult struct {
	AlertID  string    `json:"alert_id"`
	Success  bool      `json:"success"`
	Channels []Channel `json:"channels"`
	Errors   []string  `json:"errors,omitempty"`
}
