package handler

import (
	"net/http"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/httpx"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// InventoryHandler serves ledger reads and stock limits. Quantity-changing
// writes go through the monitor so they are evaluated.
type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) Register(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.ListRecords)
		r.Get("/movements", h.ListMovements)
		r.Get("/{locationID}/{itemID}", h.GetRecord)
		r.Put("/{locationID}/{itemID}/limits", h.SetStockLimits)
	})
}

func (h *InventoryHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := h.uc.ListRecords(r.Context(), &dto.RecordFilters{
		LocationID: q.Get("location_id"),
		ItemID:     q.Get("item_id"),
	})
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]interface{}{"records": records, "total": len(records)})
}

func (h *InventoryHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.uc.GetRecord(r.Context(), chi.URLParam(r, "locationID"), chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, rec)
}

func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &dto.MovementFilters{
		LocationID:   q.Get("location_id"),
		ItemID:       q.Get("item_id"),
		MovementType: model.MovementType(q.Get("movement_type")),
		Page:         httpx.QueryInt(r, "page", 1),
		PageSize:     httpx.QueryInt(r, "page_size", 50),
	}
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.WriteError(w, h.logger, http.StatusBadRequest, "start_date must be RFC3339")
			return
		}
		filters.StartDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpx.WriteError(w, h.logger, http.StatusBadRequest, "end_date must be RFC3339")
			return
		}
		filters.EndDate = &t
	}

	movements, total, err := h.uc.ListMovements(r.Context(), filters)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"movements": movements,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func (h *InventoryHandler) SetStockLimits(w http.ResponseWriter, r *http.Request) {
	var in dto.StockLimitsInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	in.LocationID = chi.URLParam(r, "locationID")
	in.ItemID = chi.URLParam(r, "itemID")

	rec, err := h.uc.SetStockLimits(r.Context(), &in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, rec)
}
