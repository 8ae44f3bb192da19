package notification

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// StateRepository persists the per (item, location) alert memory. Get returns nil
// for a key that never alerted.
type StateRepository interface {
	Get(ctx context.Context, id string) (*model.NotificationState, error)
	Save(ctx context.Context, st *model.NotificationState) error
	List(ctx context.Context) ([]model.NotificationState, error)

	LastDigestAt(ctx context.Context) (time.Time, error)
	SetLastDigestAt(ctx context.Context, at time.Time) error
}

type InboxRepository interface {
	// Append stores n, keeping at most limit entries.
	Append(ctx context.Context, n model.Notification, limit int) error
	// List returns the newest entries first.
	List(ctx context.Context, limit int) ([]model.Notification, error)
}
