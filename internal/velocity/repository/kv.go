package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
)

// KVRepository keeps one rolling event log per item.
type KVRepository struct {
	store  storage.Store
	locks  keylock.Locker
	logger logger.ZapLogger
}

func NewKVRepository(store storage.Store, locks keylock.Locker, log logger.ZapLogger) *KVRepository {
	return &KVRepository{store: store, locks: locks, logger: log}
}

func eventsKey(itemID string) string {
	return "velocity:sales:" + itemID
}

func (r *KVRepository) ListEvents(ctx context.Context, itemID string) ([]model.SalesEvent, error) {
	return storage.Load[[]model.SalesEvent](ctx, r.store, eventsKey(itemID), r.logger)
}

func (r *KVRepository) AppendEvent(ctx context.Context, ev model.SalesEvent, cutoff time.Time) error {
	unlock, err := r.locks.Lock(ctx, eventsKey(ev.ItemID))
	if err != nil {
		return err
	}
	defer unlock()

	events, err := r.ListEvents(ctx, ev.ItemID)
	if err != nil {
		return err
	}
	kept := events[:0]
	for _, e := range events {
		if e.At.After(cutoff) {
			kept = append(kept, e)
		}
	}
	kept = append(kept, ev)
	return storage.Save(ctx, r.store, eventsKey(ev.ItemID), kept)
}
