package repository

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
)

const (
	stateIndexKey = "notification:states"
	lastDigestKey = "notification:digest:last"
	inboxKey      = "notification:inbox"
)

// StateRepository keeps one blob per notification state plus an index of ids.
// Index updates take the index key's lock so replicas sharing a store do not
// drop each other's entries.
type StateRepository struct {
	store  storage.Store
	locks  keylock.Locker
	logger logger.ZapLogger
}

func NewStateRepository(store storage.Store, locks keylock.Locker, log logger.ZapLogger) *StateRepository {
	return &StateRepository{store: store, locks: locks, logger: log}
}

func stateKey(id string) string {
	return "notification:state:" + id
}

func (r *StateRepository) Get(ctx context.Context, id string) (*model.NotificationState, error) {
	st, err := storage.Load[model.NotificationState](ctx, r.store, stateKey(id), r.logger)
	if err != nil {
		return nil, err
	}
	if st.ID == "" {
		return nil, nil
	}
	return &st, nil
}

func (r *StateRepository) Save(ctx context.Context, st *model.NotificationState) error {
	if err := r.ensureIndexed(ctx, st.ID); err != nil {
		return err
	}
	return storage.Save(ctx, r.store, stateKey(st.ID), st)
}

func (r *StateRepository) List(ctx context.Context) ([]model.NotificationState, error) {
	ids, err := storage.Load[[]string](ctx, r.store, stateIndexKey, r.logger)
	if err != nil {
		return nil, err
	}
	out := make([]model.NotificationState, 0, len(ids))
	for _, id := range ids {
		st, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if st != nil {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *StateRepository) LastDigestAt(ctx context.Context) (time.Time, error) {
	return storage.Load[time.Time](ctx, r.store, lastDigestKey, r.logger)
}

func (r *StateRepository) SetLastDigestAt(ctx context.Context, at time.Time) error {
	return storage.Save(ctx, r.store, lastDigestKey, at)
}

func (r *StateRepository) ensureIndexed(ctx context.Context, id string) error {
	unlock, err := r.locks.Lock(ctx, stateIndexKey)
	if err != nil {
		return err
	}
	defer unlock()

	ids, err := storage.Load[[]string](ctx, r.store, stateIndexKey, r.logger)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return storage.Save(ctx, r.store, stateIndexKey, append(ids, id))
}

// InboxRepository keeps the in-app notification feed as one capped list, oldest
// first.
type InboxRepository struct {
	store  storage.Store
	locks  keylock.Locker
	logger logger.ZapLogger
}

func NewInboxRepository(store storage.Store, locks keylock.Locker, log logger.ZapLogger) *InboxRepository {
	return &InboxRepository{store: store, locks: locks, logger: log}
}

func (r *InboxRepository) Append(ctx context.Context, n model.Notification, limit int) error {
	unlock, err := r.locks.Lock(ctx, inboxKey)
	if err != nil {
		return err
	}
	defer unlock()

	items, err := storage.Load[[]model.Notification](ctx, r.store, inboxKey, r.logger)
	if err != nil {
		return err
	}
	items = append(items, n)
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return storage.Save(ctx, r.store, inboxKey, items)
}

func (r *InboxRepository) List(ctx context.Context, limit int) ([]model.Notification, error) {
	items, err := storage.Load[[]model.Notification](ctx, r.store, inboxKey, r.logger)
	if err != nil {
		return nil, err
	}
	out := make([]model.Notification, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
