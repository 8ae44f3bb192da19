package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

const indexKey = "inventory:index"

type recordRef struct {
	LocationID string `json:"location_id"`
	ItemID     string `json:"item_id"`
}

// KVRepository stores one blob per record and one append-only movement log per
// record. Callers serialize writes per (location, item); index updates take the
// index key's lock, which spans replicas when the locker is Redis-backed.
type KVRepository struct {
	store  storage.Store
	locks  keylock.Locker
	logger logger.ZapLogger
}

func NewKVRepository(store storage.Store, locks keylock.Locker, log logger.ZapLogger) *KVRepository {
	return &KVRepository{store: store, locks: locks, logger: log}
}

func recordKey(locationID, itemID string) string {
	return fmt.Sprintf("inventory:record:%s:%s", locationID, itemID)
}

func movementsKey(locationID, itemID string) string {
	return fmt.Sprintf("inventory:movements:%s:%s", locationID, itemID)
}

func (r *KVRepository) GetRecord(ctx context.Context, locationID, itemID string) (*model.InventoryRecord, error) {
	rec, err := storage.Load[model.InventoryRecord](ctx, r.store, recordKey(locationID, itemID), r.logger)
	if err != nil {
		return nil, err
	}
	if rec.ItemID == "" {
		return nil, nil
	}
	return &rec, nil
}

func (r *KVRepository) ListRecords(ctx context.Context, f *dto.RecordFilters) ([]model.InventoryRecord, error) {
	refs, err := storage.Load[[]recordRef](ctx, r.store, indexKey, r.logger)
	if err != nil {
		return nil, err
	}

	var out []model.InventoryRecord
	for _, ref := range refs {
		if f != nil && f.LocationID != "" && ref.LocationID != f.LocationID {
			continue
		}
		if f != nil && f.ItemID != "" && ref.ItemID != f.ItemID {
			continue
		}
		rec, err := r.GetRecord(ctx, ref.LocationID, ref.ItemID)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocationID == out[j].LocationID {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out, nil
}

func (r *KVRepository) SaveRecord(ctx context.Context, rec *model.InventoryRecord) error {
	if err := r.ensureIndexed(ctx, rec.LocationID, rec.ItemID); err != nil {
		return err
	}
	return storage.Save(ctx, r.store, recordKey(rec.LocationID, rec.ItemID), rec)
}

func (r *KVRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var refs []recordRef
	if f.LocationID != "" && f.ItemID != "" {
		refs = []recordRef{{LocationID: f.LocationID, ItemID: f.ItemID}}
	} else {
		all, err := storage.Load[[]recordRef](ctx, r.store, indexKey, r.logger)
		if err != nil {
			return nil, 0, err
		}
		for _, ref := range all {
			if f.LocationID != "" && ref.LocationID != f.LocationID {
				continue
			}
			if f.ItemID != "" && ref.ItemID != f.ItemID {
				continue
			}
			refs = append(refs, ref)
		}
	}

	var items []model.StockMovement
	for _, ref := range refs {
		mvs, err := storage.Load[[]model.StockMovement](ctx, r.store, movementsKey(ref.LocationID, ref.ItemID), r.logger)
		if err != nil {
			return nil, 0, err
		}
		for _, m := range mvs {
			if f.MovementType != "" && m.MovementType != f.MovementType {
				continue
			}
			if f.StartDate != nil && m.CreatedAt.Before(*f.StartDate) {
				continue
			}
			if f.EndDate != nil && m.CreatedAt.After(*f.EndDate) {
				continue
			}
			items = append(items, m)
		}
	}

	// Newest first, like the audit screens expect.
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	count := len(items)

	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * f.PageSize
		if offset >= len(items) {
			return []model.StockMovement{}, count, nil
		}
		end := offset + f.PageSize
		if end > len(items) {
			end = len(items)
		}
		items = items[offset:end]
	}
	return items, count, nil
}

func (r *KVRepository) AdjustStockWithMovement(ctx context.Context, rec *model.InventoryRecord, movement *model.StockMovement) error {
	keys := []string{
		recordKey(rec.LocationID, rec.ItemID),
		movementsKey(rec.LocationID, rec.ItemID),
	}
	return r.atomically(ctx, keys, func() error {
		if err := r.SaveRecord(ctx, rec); err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}
		if err := r.appendMovement(ctx, movement); err != nil {
			return fmt.Errorf("failed to log movement: %w", err)
		}
		return nil
	})
}

func (r *KVRepository) TransferWithMovements(ctx context.Context, src, dst *model.InventoryRecord, out, in *model.StockMovement) error {
	keys := []string{
		recordKey(src.LocationID, src.ItemID),
		movementsKey(src.LocationID, src.ItemID),
		recordKey(dst.LocationID, dst.ItemID),
		movementsKey(dst.LocationID, dst.ItemID),
	}
	return r.atomically(ctx, keys, func() error {
		if err := r.SaveRecord(ctx, src); err != nil {
			return fmt.Errorf("failed to update source inventory: %w", err)
		}
		if err := r.SaveRecord(ctx, dst); err != nil {
			return fmt.Errorf("failed to update target inventory: %w", err)
		}
		if err := r.appendMovement(ctx, out); err != nil {
			return fmt.Errorf("failed to log transfer out: %w", err)
		}
		if err := r.appendMovement(ctx, in); err != nil {
			return fmt.Errorf("failed to log transfer in: %w", err)
		}
		return nil
	})
}

func (r *KVRepository) appendMovement(ctx context.Context, m *model.StockMovement) error {
	key := movementsKey(m.LocationID, m.ItemID)
	mvs, err := storage.Load[[]model.StockMovement](ctx, r.store, key, r.logger)
	if err != nil {
		return err
	}
	mvs = append(mvs, *m)
	return storage.Save(ctx, r.store, key, mvs)
}

func (r *KVRepository) ensureIndexed(ctx context.Context, locationID, itemID string) error {
	unlock, err := r.locks.Lock(ctx, indexKey)
	if err != nil {
		return err
	}
	defer unlock()

	refs, err := storage.Load[[]recordRef](ctx, r.store, indexKey, r.logger)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if ref.LocationID == locationID && ref.ItemID == itemID {
			return nil
		}
	}
	refs = append(refs, recordRef{LocationID: locationID, ItemID: itemID})
	return storage.Save(ctx, r.store, indexKey, refs)
}

// atomically snapshots keys, runs fn, and writes the snapshots back if fn fails.
// The key-value contract has no transactions, so this is a compensating rollback.
func (r *KVRepository) atomically(ctx context.Context, keys []string, fn func() error) error {
	type snapshot struct {
		raw   []byte
		found bool
	}
	snaps := make(map[string]snapshot, len(keys))
	for _, k := range keys {
		raw, found, err := r.store.Get(ctx, k)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", k, err)
		}
		snaps[k] = snapshot{raw: raw, found: found}
	}

	err := fn()
	if err == nil {
		return nil
	}

	for _, k := range keys {
		s := snaps[k]
		raw := s.raw
		if !s.found {
			raw = []byte("null")
		}
		if rbErr := r.store.Set(context.WithoutCancel(ctx), k, raw); rbErr != nil {
			r.logger.Error("Failed to roll back inventory key", zap.String("key", k), zap.Error(rbErr))
		}
	}
	return err
}
