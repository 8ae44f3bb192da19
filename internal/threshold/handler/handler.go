package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/threshold"
	"github.com/fekuna/omnipos-stock-service/pkg/httpx"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ThresholdHandler struct {
	uc     threshold.UseCase
	logger logger.ZapLogger
}

func NewThresholdHandler(uc threshold.UseCase, log logger.ZapLogger) *ThresholdHandler {
	return &ThresholdHandler{uc: uc, logger: log}
}

// Register mounts:
//
//	GET /thresholds/default
//	PUT /thresholds/default
//	GET /thresholds/{itemID}?location_id=
//	PUT /thresholds/{itemID}
//	PUT /thresholds/{itemID}/locations/{locationID}
func (h *ThresholdHandler) Register(r chi.Router) {
	r.Route("/thresholds", func(r chi.Router) {
		r.Get("/default", h.GetDefault)
		r.Put("/default", h.SetDefault)
		r.Get("/{itemID}", h.Get)
		r.Put("/{itemID}", h.SetItem)
		r.Put("/{itemID}/locations/{locationID}", h.SetLocationOverride)
	})
}

func (h *ThresholdHandler) GetDefault(w http.ResponseWriter, r *http.Request) {
	t, err := h.uc.GetDefault(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, t)
}

func (h *ThresholdHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	var t model.Thresholds
	if err := httpx.Decode(r, &t); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.uc.SetDefault(r.Context(), t); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, t)
}

func (h *ThresholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.uc.Get(r.Context(), chi.URLParam(r, "itemID"), r.URL.Query().Get("location_id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, t)
}

func (h *ThresholdHandler) SetItem(w http.ResponseWriter, r *http.Request) {
	var t model.Thresholds
	if err := httpx.Decode(r, &t); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.uc.SetItem(r.Context(), chi.URLParam(r, "itemID"), t); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, t)
}

func (h *ThresholdHandler) SetLocationOverride(w http.ResponseWriter, r *http.Request) {
	var o model.LocationThresholds
	if err := httpx.Decode(r, &o); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	effective, err := h.uc.SetLocationOverride(r.Context(), chi.URLParam(r, "itemID"), chi.URLParam(r, "locationID"), o)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, effective)
}
