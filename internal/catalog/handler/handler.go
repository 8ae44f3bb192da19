package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/catalog"
	"github.com/fekuna/omnipos-stock-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/httpx"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	uc     catalog.UseCase
	logger logger.ZapLogger
}

func NewCatalogHandler(uc catalog.UseCase, log logger.ZapLogger) *CatalogHandler {
	return &CatalogHandler{uc: uc, logger: log}
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Get("/{id}", h.GetItem)
		r.Put("/{id}", h.UpsertItem)
	})
	r.Route("/locations", func(r chi.Router) {
		r.Get("/", h.ListLocations)
		r.Get("/{id}", h.GetLocation)
		r.Put("/{id}", h.UpsertLocation)
	})
}

func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.uc.ListItems(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.uc.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, item)
}

func (h *CatalogHandler) UpsertItem(w http.ResponseWriter, r *http.Request) {
	var in dto.UpsertItemInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	in.ID = chi.URLParam(r, "id")
	item, err := h.uc.UpsertItem(r.Context(), &in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, item)
}

// ListLocations lists every location; ?active=true keeps only active ones.
func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.uc.ListLocations(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]interface{}{"locations": locs})
}

func (h *CatalogHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.uc.GetLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, loc)
}

func (h *CatalogHandler) UpsertLocation(w http.ResponseWriter, r *http.Request) {
	var in dto.UpsertLocationInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	in.ID = chi.URLParam(r, "id")
	loc, err := h.uc.UpsertLocation(r.Context(), &in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, loc)
}
