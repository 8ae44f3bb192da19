package model

import (
	"fmt"
	"time"
)

type Channel string

const (
	ChannelInApp   Channel = "in_app"
	ChannelPush    Channel = "push"
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelWebhook Channel = "webhook"
)

type Role string

const (
	RoleOwner      Role = "owner"
	RoleManager    Role = "manager"
	RoleSupervisor Role = "supervisor"
	RoleBartender  Role = "bartender"
	RoleCashier    Role = "cashier"
	RoleServer     Role = "server"
)

// IsFrontLine reports whether the role works the floor. Front-line staff never
// receive stock alerts, whatever the recipient configuration says.
func (r Role) IsFrontLine() bool {
	switch r {
	case RoleBartender, RoleCashier, RoleServer:
		return true
	}
	return false
}

type Recipient struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	Address     string    `json:"address,omitempty"`
	Channels    []Channel `json:"channels"`
	MinSeverity Severity  `json:"min_severity"`
}

// NotificationState is the anti-spam and escalation memory of one (item, location).
type NotificationState struct {
	ID                string     `json:"id"`
	ItemID            string     `json:"item_id"`
	LocationID        string     `json:"location_id"`
	LastNotifiedAt    time.Time  `json:"last_notified_at"`
	LastSeverity      Severity   `json:"last_severity"`
	CooldownUntil     time.Time  `json:"cooldown_until"`
	NotificationCount int        `json:"notification_count"`
	Acknowledged      bool       `json:"acknowledged"`
	AcknowledgedAt    *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy    string     `json:"acknowledged_by,omitempty"`
	EscalatedAt       *time.Time `json:"escalated_at,omitempty"`
	EscalationCount   int        `json:"escalation_count"`
	Active            bool       `json:"active"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

func NotificationStateID(itemID, locationID string) string {
	return fmt.Sprintf("%s@%s", itemID, locationID)
}

type ComposedMessage struct {
	ShortMessage   string `json:"short_message"`
	FullMessage    string `json:"full_message"`
	ChannelMessage string `json:"channel_message"`
	Explanation    string `json:"explanation"`
	Source         string `json:"source"`
}

// Alert is one orchestrated stock alert waiting for delivery.
type Alert struct {
	ID         string          `json:"id"`
	ItemID     string          `json:"item_id"`
	LocationID string          `json:"location_id"`
	Severity   Severity        `json:"severity"`
	Message    ComposedMessage `json:"message"`
	CreatedAt  time.Time       `json:"created_at"`
}

type NotificationKind string

const (
	KindAlert      NotificationKind = "alert"
	KindAggregated NotificationKind = "aggregated"
	KindEscalation NotificationKind = "escalation"
	KindDigest     NotificationKind = "digest"
)

// Notification is the unit handed to channel senders.
type Notification struct {
	ID         string           `json:"id"`
	Kind       NotificationKind `json:"kind"`
	LocationID string           `json:"location_id,omitempty"`
	ItemIDs    []string         `json:"item_ids"`
	Severity   Severity         `json:"severity"`
	Title      string           `json:"title"`
	Body       string           `json:"body"`
	CreatedAt  time.Time        `json:"created_at"`
}
