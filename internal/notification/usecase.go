package notification

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Reason string

const (
	ReasonNotified   Reason = "notified"
	ReasonDisabled   Reason = "disabled"
	ReasonHealthy    Reason = "severity_ok"
	ReasonCooldown   Reason = "cooldown"
	ReasonQuietHours Reason = "quiet_hours"
)

// Decision is the outcome of one orchestration. Channels lists where the alert
// will be delivered when Notified is true.
type Decision struct {
	Notified bool            `json:"notified"`
	Reason   Reason          `json:"reason"`
	Channels []model.Channel `json:"channels"`
}

type Orchestrator interface {
	Orchestrate(ctx context.Context, state *model.StockState, rec *model.ReplenishmentRecommendation) (Decision, error)
	Acknowledge(ctx context.Context, id, by string) (*model.NotificationState, error)
	// AcknowledgeItem acknowledges the item at every location and returns how
	// many states changed.
	AcknowledgeItem(ctx context.Context, itemID, by string) (int, error)
	ListUnacknowledged(ctx context.Context) ([]model.NotificationState, error)
	// EscalationSweep re-routes overdue unacknowledged critical alerts and returns
	// how many were escalated.
	EscalationSweep(ctx context.Context) (int, error)
	// SendDigest returns false when the digest was skipped.
	SendDigest(ctx context.Context) (bool, error)
	// Flush delivers every buffered alert immediately.
	Flush(ctx context.Context)
	Stats() StatsSnapshot
}
