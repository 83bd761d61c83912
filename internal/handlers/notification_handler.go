package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/worklane/backend/internal/models"
)

type NotificationLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
}

// NotificationHandler serves GET /v1/notifications.
type NotificationHandler struct {
	Repo NotificationLister
	Log  *slog.Logger
}

func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := h.Repo.ListByUser(r.Context(), p.ID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
