package repository

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
)

const defaultKey = "thresholds:default"

type KVRepository struct {
	store  storage.Store
	logger logger.ZapLogger
}

func NewKVRepository(store storage.Store, log logger.ZapLogger) *KVRepository {
	return &KVRepository{store: store, logger: log}
}

func itemKey(itemID string) string {
	return "thresholds:item:" + itemID
}

func overrideKey(itemID, locationID string) string {
	return "thresholds:override:" + itemID + ":" + locationID
}

func (r *KVRepository) GetDefault(ctx context.Context) (*model.Thresholds, error) {
	return storage.Load[*model.Thresholds](ctx, r.store, defaultKey, r.logger)
}

func (r *KVRepository) SaveDefault(ctx context.Context, t model.Thresholds) error {
	return storage.Save(ctx, r.store, defaultKey, t)
}

func (r *KVRepository) GetItem(ctx context.Context, itemID string) (*model.Thresholds, error) {
	return storage.Load[*model.Thresholds](ctx, r.store, itemKey(itemID), r.logger)
}

func (r *KVRepository) SaveItem(ctx context.Context, itemID string, t model.Thresholds) error {
	return storage.Save(ctx, r.store, itemKey(itemID), t)
}

func (r *KVRepository) GetOverride(ctx context.Context, itemID, locationID string) (*model.LocationThresholds, error) {
	return storage.Load[*model.LocationThresholds](ctx, r.store, overrideKey(itemID, locationID), r.logger)
}

func (r *KVRepository) SaveOverride(ctx context.Context, itemID, locationID string, o model.LocationThresholds) error {
	return storage.Save(ctx, r.store, overrideKey(itemID, locationID), o)
}
