package catalog

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	UpsertItem(ctx context.Context, input *dto.UpsertItemInput) (*model.Item, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	UpsertLocation(ctx context.Context, input *dto.UpsertLocationInput) (*model.Location, error)
	GetLocation(ctx context.Context, id string) (*model.Location, error)
	ListLocations(ctx context.Context, activeOnly bool) ([]model.Location, error)
	// IsMonitored reports whether stock alerts apply to the item.
	IsMonitored(ctx context.Context, itemID string) (bool, error)
}
