package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/pkg/httpx"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	orchestrator notification.Orchestrator
	inbox        notification.InboxRepository
	logger       logger.ZapLogger
}

func NewNotificationHandler(o notification.Orchestrator, inbox notification.InboxRepository, log logger.ZapLogger) *NotificationHandler {
	return &NotificationHandler{orchestrator: o, inbox: inbox, logger: log}
}

func (h *NotificationHandler) Register(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/states", h.ListUnacknowledged)
		r.Post("/states/{id}/ack", h.Acknowledge)
		r.Post("/items/{itemID}/ack", h.AcknowledgeItem)
		r.Get("/inbox", h.Inbox)
		r.Get("/stats", h.Stats)
		r.Post("/digest", h.SendDigest)
		r.Post("/escalations", h.EscalationSweep)
		r.Post("/flush", h.Flush)
	})
}

func (h *NotificationHandler) ListUnacknowledged(w http.ResponseWriter, r *http.Request) {
	states, err := h.orchestrator.ListUnacknowledged(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]interface{}{"states": states, "total": len(states)})
}

func (h *NotificationHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	st, err := h.orchestrator.Acknowledge(r.Context(), chi.URLParam(r, "id"), auth.GetUserID(r.Context()))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, st)
}

func (h *NotificationHandler) AcknowledgeItem(w http.ResponseWriter, r *http.Request) {
	n, err := h.orchestrator.AcknowledgeItem(r.Context(), chi.URLParam(r, "itemID"), auth.GetUserID(r.Context()))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]int{"acknowledged": n})
}

func (h *NotificationHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	items, err := h.inbox.List(r.Context(), httpx.QueryInt(r, "limit", 50))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]interface{}{"notifications": items})
}

func (h *NotificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, h.logger, http.StatusOK, h.orchestrator.Stats())
}

func (h *NotificationHandler) SendDigest(w http.ResponseWriter, r *http.Request) {
	sent, err := h.orchestrator.SendDigest(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]bool{"sent": sent})
}

func (h *NotificationHandler) EscalationSweep(w http.ResponseWriter, r *http.Request) {
	n, err := h.orchestrator.EscalationSweep(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]int{"escalated": n})
}

func (h *NotificationHandler) Flush(w http.ResponseWriter, r *http.Request) {
	h.orchestrator.Flush(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
