package usecase

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-stock-service/internal/catalog/repository"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(categories ...string) *catalogUseCase {
	repo := repository.NewKVRepository(storage.NewMemoryStore(), keylock.NewLocal(), logger.NewNop())
	return NewCatalogUseCase(repo, categories, logger.NewNop()).(*catalogUseCase)
}

func TestUpsertLocation_KeepsActiveFlagUnlessGiven(t *testing.T) {
	ctx := context.Background()
	uc := newTestCatalog()

	loc, err := uc.UpsertLocation(ctx, &dto.UpsertLocationInput{ID: "bar-1", Name: "Main Bar"})
	require.NoError(t, err)
	assert.True(t, loc.Active)

	inactive := false
	_, err = uc.UpsertLocation(ctx, &dto.UpsertLocationInput{ID: "bar-1", Active: &inactive})
	require.NoError(t, err)

	loc, err = uc.UpsertLocation(ctx, &dto.UpsertLocationInput{ID: "bar-1", Name: "Main Bar (renamed)"})
	require.NoError(t, err)
	assert.False(t, loc.Active)
	assert.Equal(t, "Main Bar (renamed)", loc.Name)

	_, err = uc.UpsertLocation(ctx, &dto.UpsertLocationInput{ID: "terrace"})
	require.NoError(t, err)

	active, err := uc.ListLocations(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "terrace", active[0].ID)
}

func TestIsMonitored_CategoryAllowlist(t *testing.T) {
	ctx := context.Background()
	uc := newTestCatalog("Spirits", " beer ")

	for _, in := range []dto.UpsertItemInput{
		{ID: "gin", Category: "spirits"},
		{ID: "lager", Category: "Beer"},
		{ID: "napkins", Category: "supplies"},
	} {
		in := in
		_, err := uc.UpsertItem(ctx, &in)
		require.NoError(t, err)
	}

	testCases := map[string]bool{"gin": true, "lager": true, "napkins": false, "unknown": false}
	for id, want := range testCases {
		got, err := uc.IsMonitored(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}

	open := newTestCatalog()
	got, err := open.IsMonitored(ctx, "anything")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestGetItem_NotFound(t *testing.T) {
	_, err := newTestCatalog().GetItem(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = newTestCatalog().UpsertItem(context.Background(), &dto.UpsertItemInput{})
	var vErr *model.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
