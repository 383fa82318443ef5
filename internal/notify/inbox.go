package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
)

// Inbox page sizes.
const (
	DefaultInboxLimit = 50
	MaxInboxLimit     = 200
)

// ListForUser returns the user's notifications, newest first. limit is
// clamped to [1, MaxInboxLimit] with DefaultInboxLimit for zero.
func (d *Dispatcher) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
	unreadOnly bool,
) ([]*domain.Notification, error) {
	switch {
	case limit <= 0:
		limit = DefaultInboxLimit
	case limit > MaxInboxLimit:
		limit = MaxInboxLimit
	}

	list, err := d.notifications.ListByRecipient(ctx, userID, limit, unreadOnly)
	if err != nil {
		return nil, NewServiceError("list", "failed to list notifications", err)
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	return list, nil
}

// MarkRead flags one of the user's notifications as read. The read flag is
// the only field that ever changes after creation.
func (d *Dispatcher) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := d.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		return NewServiceError("mark_read", "failed to mark notification read", err)
	}
	return nil
}

// MarkAllRead flags every unread notification of the user and returns how
// many changed.
func (d *Dispatcher) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := d.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, NewServiceError("mark_all_read", "failed to mark notifications read", err)
	}
	logger.FromContextOrDefault(ctx, d.logger).Debug("notifications marked read",
		"user_id", userID,
		"count", n)
	return n, nil
}
