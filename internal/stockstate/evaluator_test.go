package stockstate

import (
	"context"
	"testing"

	catalogdto "github.com/fekuna/omnipos-stock-service/internal/catalog/dto"
	catalogrepo "github.com/fekuna/omnipos-stock-service/internal/catalog/repository"
	catalogusecase "github.com/fekuna/omnipos-stock-service/internal/catalog/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	inventoryrepo "github.com/fekuna/omnipos-stock-service/internal/inventory/repository"
	inventoryusecase "github.com/fekuna/omnipos-stock-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	thresholdrepo "github.com/fekuna/omnipos-stock-service/internal/threshold/repository"
	thresholdusecase "github.com/fekuna/omnipos-stock-service/internal/threshold/usecase"
	velocityusecase "github.com/fekuna/omnipos-stock-service/internal/velocity/usecase"
	"github.com/fekuna/omnipos-stock-service/pkg/clock"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	eval *Evaluator
	inv  inventory.UseCase
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	log := logger.NewNop()
	clk := clock.NewFake(now)
	ctx := context.Background()

	cat := catalogusecase.NewCatalogUseCase(catalogrepo.NewKVRepository(store, keylock.NewLocal(), log), nil, log)
	inactive := false
	for _, in := range []catalogdto.UpsertLocationInput{
		{ID: "bar", Name: "Main Bar"},
		{ID: "cellar", Name: "Cellar"},
		{ID: "patio", Name: "Patio"},
		{ID: "closed", Name: "Old Kiosk", Active: &inactive},
	} {
		in := in
		_, err := cat.UpsertLocation(ctx, &in)
		require.NoError(t, err)
	}
	_, err := cat.UpsertItem(ctx, &catalogdto.UpsertItemInput{ID: "gin", Name: "London Dry Gin"})
	require.NoError(t, err)

	inv := inventoryusecase.NewInventoryUseCase(inventoryrepo.NewKVRepository(store, keylock.NewLocal(), log), keylock.NewLocal(), clk, log)
	ths := thresholdusecase.NewThresholdUseCase(thresholdrepo.NewKVRepository(store, log), log)

	return fixture{
		eval: NewEvaluator(inv, ths, velocityusecase.Disabled{}, cat, clk, 1, log),
		inv:  inv,
	}
}

func (f fixture) stock(t *testing.T, loc string, qty float64) {
	t.Helper()
	_, err := f.inv.Restock(context.Background(), &dto.RestockInput{LocationID: loc, ItemID: "gin", Quantity: qty})
	require.NoError(t, err)
}

func TestEvaluate_UnknownRecordIsCritical(t *testing.T) {
	f := newFixture(t)
	s, err := f.eval.Evaluate(context.Background(), "bar", "gin", nil)
	require.NoError(t, err)

	assert.Equal(t, model.SeverityCritical, s.Severity)
	assert.Equal(t, "London Dry Gin", s.ItemName)
	assert.Nil(t, s.CoverageHours)
}

func TestEvaluate_ExplicitThresholds(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "bar", 15)

	th := model.Thresholds{MinAbsolute: 5, ReorderPoint: 20, PackSize: 1}
	s, err := f.eval.Evaluate(context.Background(), "bar", "gin", &th)
	require.NoError(t, err)
	assert.Equal(t, model.SeverityWarning, s.Severity)
	assert.Equal(t, 75, s.PercentOfReorder)
}

func TestAlternatives_ActiveSortedAboveFloor(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "bar", 2)
	f.stock(t, "cellar", 40)
	f.stock(t, "patio", 9)
	f.stock(t, "closed", 100)
	_, err := f.inv.RecordSale(context.Background(), &dto.SaleInput{LocationID: "patio", ItemID: "gin", Quantity: 8.5})
	require.NoError(t, err)

	alts, err := f.eval.Alternatives(context.Background(), "gin", "bar")
	require.NoError(t, err)
	require.Len(t, alts, 1)
	assert.Equal(t, "cellar", alts[0].LocationID)
	assert.Equal(t, "Cellar", alts[0].LocationName)

	s, err := f.eval.Evaluate(context.Background(), "cellar", "gin", nil)
	require.NoError(t, err)
	require.Len(t, s.Alternatives, 1)
	assert.Equal(t, "bar", s.Alternatives[0].LocationID)
}

func TestEvaluateAll_SkipsInactiveLocations(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "bar", 30)
	f.stock(t, "cellar", 3)
	f.stock(t, "closed", 1)

	states, err := f.eval.EvaluateAll(context.Background(), "gin")
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "bar", states[0].LocationID)
	assert.Equal(t, model.SeverityOK, states[0].Severity)
	assert.Equal(t, "cellar", states[1].LocationID)
	assert.Equal(t, model.SeverityCritical, states[1].Severity)
}

func TestEvaluate_RepeatedQueriesDoNotDrift(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "bar", 12)

	a, err := f.eval.Evaluate(context.Background(), "bar", "gin", nil)
	require.NoError(t, err)
	b, err := f.eval.Evaluate(context.Background(), "bar", "gin", nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
