package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	catalogrepo "github.com/fekuna/omnipos-stock-service/internal/catalog/repository"
	catalogusecase "github.com/fekuna/omnipos-stock-service/internal/catalog/usecase"
	inventoryrepo "github.com/fekuna/omnipos-stock-service/internal/inventory/repository"
	inventoryusecase "github.com/fekuna/omnipos-stock-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/monitor"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/internal/notification/channel"
	"github.com/fekuna/omnipos-stock-service/internal/notification/composer"
	notificationrepo "github.com/fekuna/omnipos-stock-service/internal/notification/repository"
	notificationusecase "github.com/fekuna/omnipos-stock-service/internal/notification/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/replenishment"
	"github.com/fekuna/omnipos-stock-service/internal/stockstate"
	"github.com/fekuna/omnipos-stock-service/internal/storage"
	thresholdrepo "github.com/fekuna/omnipos-stock-service/internal/threshold/repository"
	thresholdusecase "github.com/fekuna/omnipos-stock-service/internal/threshold/usecase"
	velocityusecase "github.com/fekuna/omnipos-stock-service/internal/velocity/usecase"
	"github.com/fekuna/omnipos-stock-service/pkg/clock"
	"github.com/fekuna/omnipos-stock-service/pkg/keylock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	store := storage.NewMemoryStore()
	log := logger.NewNop()
	clk := clock.NewFake(time.Date(2026, 3, 6, 14, 0, 0, 0, time.UTC))
	locks := keylock.NewLocal()
	vel := velocityusecase.Disabled{}

	cat := catalogusecase.NewCatalogUseCase(catalogrepo.NewKVRepository(store, locks, log), nil, log)
	inv := inventoryusecase.NewInventoryUseCase(inventoryrepo.NewKVRepository(store, locks, log), locks, clk, log)
	ths := thresholdusecase.NewThresholdUseCase(thresholdrepo.NewKVRepository(store, log), log)

	cfg := notification.DefaultConfig()
	cfg.AggregationWindow = 0
	stats := notification.NewStats()
	disp := channel.NewDispatcher(channel.NewInApp(notificationrepo.NewInboxRepository(store, locks, log), cfg.InboxLimit),
		nil, nil, channel.Config{}, stats, log)
	orch := notificationusecase.NewOrchestrator(cfg, notificationrepo.NewStateRepository(store, locks, log), locks, clk,
		composer.WithFallback(nil, 0, log), disp, stats, log)

	svc := monitor.NewService(monitor.Config{}, inv, vel,
		stockstate.NewEvaluator(inv, ths, vel, cat, clk, 1, log), replenishment.NewCalculator(), orch, cat, log)

	r := chi.NewRouter()
	NewMonitorHandler(svc, log).Register(r)
	return r
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func TestMonitorHandler_SaleFlow(t *testing.T) {
	router := newRouter(t)

	require.Equal(t, http.StatusOK, post(router, "/stock/restocks", `{"location_id": "bar", "item_id": "gin", "quantity": 8}`).Code)

	rec := post(router, "/stock/sales", `{"location_id": "bar", "item_id": "gin", "quantity": 6}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out monitor.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, model.SeverityCritical, out.State.Severity)
	assert.True(t, out.Decision.Notified)
	require.NotNil(t, out.Recommendation)

	assert.Equal(t, http.StatusBadRequest, post(router, "/stock/sales", `{"location_id": "bar", "item_id": "gin", "quantity": 0}`).Code)
	assert.Equal(t, http.StatusConflict, post(router, "/stock/transfers",
		`{"source_location_id": "bar", "target_location_id": "patio", "item_id": "gin", "quantity": 50}`).Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stock/states/gin/bar", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var state model.StockState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 2.0, state.Available)
}

func TestMonitorHandler_Sweep(t *testing.T) {
	router := newRouter(t)
	require.Equal(t, http.StatusOK, post(router, "/stock/restocks", `{"location_id": "bar", "item_id": "gin", "quantity": 30}`).Code)

	rec := post(router, "/stock/sweep", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary monitor.SweepSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Evaluated)
}
