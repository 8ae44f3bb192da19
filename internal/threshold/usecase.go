package threshold

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	// Get resolves the effective thresholds: default, then item, then the
	// location override when locationID is non-empty.
	Get(ctx context.Context, itemID, locationID string) (model.Thresholds, error)
	GetDefault(ctx context.Context) (model.Thresholds, error)
	SetDefault(ctx context.Context, t model.Thresholds) error
	SetItem(ctx context.Context, itemID string, t model.Thresholds) error
	SetLocationOverride(ctx context.Context, itemID, locationID string, o model.LocationThresholds) (model.Thresholds, error)
}
