package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/monitor"
	"github.com/fekuna/omnipos-stock-service/pkg/httpx"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type MonitorHandler struct {
	svc    *monitor.Service
	logger logger.ZapLogger
}

func NewMonitorHandler(svc *monitor.Service, log logger.ZapLogger) *MonitorHandler {
	return &MonitorHandler{svc: svc, logger: log}
}

// Register mounts the write paths that trigger evaluation, plus state queries
// and the forced sweep.
func (h *MonitorHandler) Register(r chi.Router) {
	r.Route("/stock", func(r chi.Router) {
		r.Post("/sales", h.RecordSale)
		r.Post("/restocks", h.Restock)
		r.Post("/adjustments", h.Adjust)
		r.Post("/transfers", h.Transfer)
		r.Get("/states/{itemID}", h.GetStatesForItem)
		r.Get("/states/{itemID}/{locationID}", h.GetState)
		r.Get("/recommendations/{itemID}/{locationID}", h.Recommend)
		r.Post("/sweep", h.Sweep)
	})
}

func (h *MonitorHandler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var in dto.SaleInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.svc.HandleSale(r.Context(), &in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, out)
}

func (h *MonitorHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var in dto.RestockInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.svc.HandleRestock(r.Context(), &in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, out)
}

func (h *MonitorHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var in dto.AdjustInventoryInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.svc.HandleAdjustment(r.Context(), &in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, out)
}

func (h *MonitorHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var in dto.TransferInventoryInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	out, err := h.svc.Transfer(r.Context(), &in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, out)
}

func (h *MonitorHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.GetState(r.Context(), chi.URLParam(r, "locationID"), chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, state)
}

func (h *MonitorHandler) GetStatesForItem(w http.ResponseWriter, r *http.Request) {
	states, err := h.svc.GetStatesForItem(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]interface{}{"states": states})
}

func (h *MonitorHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Recommend(r.Context(), chi.URLParam(r, "locationID"), chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, rec)
}

func (h *MonitorHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Sweep(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	status := http.StatusOK
	if summary.Skipped {
		status = http.StatusAccepted
	}
	httpx.WriteJSON(w, h.logger, status, summary)
}
