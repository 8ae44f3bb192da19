package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRepository_SaveGetList(t *testing.T) {
	repo := NewStateRepository(storage.NewMemoryStore(), keylock.NewLocal(), logger.NewNop())
	ctx := context.Background()

	missing, err := repo.Get(ctx, "gin@bar")
	require.NoError(t, err)
	assert.Nil(t, missing)

	for _, id := range []string{"tonic@bar", "gin@bar"} {
		require.NoError(t, repo.Save(ctx, &model.NotificationState{ID: id, LastSeverity: model.SeverityWarning}))
	}
	require.NoError(t, repo.Save(ctx, &model.NotificationState{ID: "gin@bar", LastSeverity: model.SeverityCritical}))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "gin@bar", all[0].ID)
	assert.Equal(t, model.SeverityCritical, all[0].LastSeverity)
}

type busyLocker struct{}

func (busyLocker) Lock(context.Context, string) (func(), error) {
	return nil, keylock.ErrLockBusy
}

// Two repositories over one store and one locker stand in for two replicas.
func TestStateRepository_IndexSurvivesConcurrentReplicas(t *testing.T) {
	store := storage.NewMemoryStore()
	locks := keylock.NewLocal()
	replicas := []*StateRepository{
		NewStateRepository(store, locks, logger.NewNop()),
		NewStateRepository(store, locks, logger.NewNop()),
	}
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st := &model.NotificationState{ID: fmt.Sprintf("item-%02d@bar", i), LastSeverity: model.SeverityWarning}
			assert.NoError(t, replicas[i%2].Save(ctx, st))
		}(i)
	}
	wg.Wait()

	all, err := replicas[1].List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestRepositories_WritesTakeSharedLock(t *testing.T) {
	ctx := context.Background()
	states := NewStateRepository(storage.NewMemoryStore(), busyLocker{}, logger.NewNop())
	err := states.Save(ctx, &model.NotificationState{ID: "gin@bar"})
	assert.ErrorIs(t, err, keylock.ErrLockBusy)

	inbox := NewInboxRepository(storage.NewMemoryStore(), busyLocker{}, logger.NewNop())
	err = inbox.Append(ctx, model.Notification{ID: "n1"}, 10)
	assert.ErrorIs(t, err, keylock.ErrLockBusy)
}

func TestStateRepository_CorruptedStateReadsAsNew(t *testing.T) {
	store := storage.NewMemoryStore()
	repo := NewStateRepository(store, keylock.NewLocal(), logger.NewNop())
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "notification:state:gin@bar", []byte("not json")))

	st, err := repo.Get(ctx, "gin@bar")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestStateRepository_LastDigestAt(t *testing.T) {
	repo := NewStateRepository(storage.NewMemoryStore(), keylock.NewLocal(), logger.NewNop())
	ctx := context.Background()

	last, err := repo.LastDigestAt(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetLastDigestAt(ctx, now))
	last, err = repo.LastDigestAt(ctx)
	require.NoError(t, err)
	assert.True(t, now.Equal(last))
}

func TestInboxRepository_CapsAndOrders(t *testing.T) {
	repo := NewInboxRepository(storage.NewMemoryStore(), keylock.NewLocal(), logger.NewNop())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, model.Notification{ID: fmt.Sprint(i)}, 3))
	}

	items, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "4", items[0].ID)
	assert.Equal(t, "2", items[2].ID)

	items, err = repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
