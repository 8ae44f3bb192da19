package catalog

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	SaveItem(ctx context.Context, item *model.Item) error

	GetLocation(ctx context.Context, id string) (*model.Location, error)
	ListLocations(ctx context.Context) ([]model.Location, error)
	SaveLocation(ctx context.Context, loc *model.Location) error
}
