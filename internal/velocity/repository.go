package velocity

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	ListEvents(ctx context.Context, itemID string) ([]model.SalesEvent, error)
	// AppendEvent stores ev and drops every event of the item older than cutoff.
	AppendEvent(ctx context.Context, ev model.SalesEvent, cutoff time.Time) error
}
