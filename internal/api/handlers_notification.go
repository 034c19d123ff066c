package api

import (
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/campuslostfound/lostfound/internal/api/respond"
	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/services"
)

type NotificationHandler struct {
	svc *services.NotificationService
}

func NewNotificationHandler(svc *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// ListNotifications GET /api/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ns, err := h.svc.ListUnread(r.Context(), actorID(r))
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if ns == nil {
		ns = []*model.Notification{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"notifications": ns, "count": len(ns)})
}

// MarkRead POST /api/notifications/{notificationId}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkRead(r.Context(), actorID(r), mux.Vars(r)["notificationId"]); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
