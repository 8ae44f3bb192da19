package repository

import (
	"context"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
)

const (
	itemsKey     = "catalog:items"
	locationsKey = "catalog:locations"
)

type KVRepository struct {
	store  storage.Store
	locks  keylock.Locker
	logger logger.ZapLogger
}

func NewKVRepository(store storage.Store, locks keylock.Locker, log logger.ZapLogger) *KVRepository {
	return &KVRepository{store: store, locks: locks, logger: log}
}

func (r *KVRepository) GetItem(ctx context.Context, id string) (*model.Item, error) {
	items, err := storage.Load[map[string]model.Item](ctx, r.store, itemsKey, r.logger)
	if err != nil {
		return nil, err
	}
	item, ok := items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *KVRepository) ListItems(ctx context.Context) ([]model.Item, error) {
	items, err := storage.Load[map[string]model.Item](ctx, r.store, itemsKey, r.logger)
	if err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *KVRepository) SaveItem(ctx context.Context, item *model.Item) error {
	unlock, err := r.locks.Lock(ctx, itemsKey)
	if err != nil {
		return err
	}
	defer unlock()

	items, err := storage.Load[map[string]model.Item](ctx, r.store, itemsKey, r.logger)
	if err != nil {
		return err
	}
	if items == nil {
		items = make(map[string]model.Item)
	}
	items[item.ID] = *item
	return storage.Save(ctx, r.store, itemsKey, items)
}

func (r *KVRepository) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	locs, err := storage.Load[map[string]model.Location](ctx, r.store, locationsKey, r.logger)
	if err != nil {
		return nil, err
	}
	loc, ok := locs[id]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

func (r *KVRepository) ListLocations(ctx context.Context) ([]model.Location, error) {
	locs, err := storage.Load[map[string]model.Location](ctx, r.store, locationsKey, r.logger)
	if err != nil {
		return nil, err
	}
	out := make([]model.Location, 0, len(locs))
	for _, l := range locs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *KVRepository) SaveLocation(ctx context.Context, loc *model.Location) error {
	unlock, err := r.locks.Lock(ctx, locationsKey)
	if err != nil {
		return err
	}
	defer unlock()

	locs, err := storage.Load[map[string]model.Location](ctx, r.store, locationsKey, r.logger)
	if err != nil {
		return err
	}
	if locs == nil {
		locs = make(map[string]model.Location)
	}
	locs[loc.ID] = *loc
	return storage.Save(ctx, r.store, locationsKey, locs)
}
