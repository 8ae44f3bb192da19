package threshold

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// Repository returns nil for anything never configured.
type Repository interface {
	GetDefault(ctx context.Context) (*model.Thresholds, error)
	SaveDefault(ctx context.Context, t model.Thresholds) error
	GetItem(ctx context.Context, itemID string) (*model.Thresholds, error)
	SaveItem(ctx context.Context, itemID string, t model.Thresholds) error
	GetOverride(ctx context.Context, itemID, locationID string) (*model.LocationThresholds, error)
	SaveOverride(ctx context.Context, itemID, locationID string, o model.LocationThresholds) error
}
