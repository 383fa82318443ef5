package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/api/shared"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/notify"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
)

// Inbox is the read side of the notification dispatcher.
type Inbox interface {
	ListForUser(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

var _ Inbox = (*notify.Dispatcher)(nil)

// listQuery holds the parsed query string of GET /api/notifications.
type listQuery struct {
	Limit  int `validate:"gte=0,lte=200"`
	Unread bool
}

// NotificationListResponse is the body of GET /api/notifications.
type NotificationListResponse struct {
	Notifications []*domain.Notification `json:"notifications"`
	Count         int                    `json:"count"`
}

// MarkAllReadResponse is the body of POST /api/notifications/read-all.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// NotificationHandler serves the notification inbox.
type NotificationHandler struct {
	inbox  Inbox
	logger *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(inbox Inbox, logger *slog.Logger) *NotificationHandler {
	if inbox == nil {
		panic("inbox cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		inbox:  inbox,
		logger: logger.With("component", "notification_handler"),
	}
}

// List handles GET /api/notifications?limit=N&unread=true.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	q, err := parseListQuery(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	if err := shared.ValidateRequest(q); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	list, err := h.inbox.ListForUser(r.Context(), userID, q.Limit, q.Unread)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NotificationListResponse{
		Notifications: list,
		Count:         len(list),
	})
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, notificationID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.inbox.MarkRead(r.Context(), userID, notificationID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	n, err := h.inbox.MarkAllRead(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to mark notifications read")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MarkAllReadResponse{Updated: n})
}

func parseListQuery(r *http.Request) (listQuery, error) {
	var q listQuery
	values := r.URL.Query()

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, err
		}
		q.Limit = n
	}
	if raw := values.Get("unread"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, err
		}
		q.Unread = b
	}
	return q, nil
}
