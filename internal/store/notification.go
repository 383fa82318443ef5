package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// Create saves a new notification.
	// Returns validation errors from the domain Notification if data is invalid.
	Create(ctx context.Context, n *domain.Notification) error

	// ListByRecipient returns the recipient's notifications, newest first.
	// A limit <= 0 means the store default.
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int, unreadOnly bool) ([]*domain.Notification, error)

	// MarkRead flags a single notification as read. It is idempotent.
	// Returns ErrNotificationNotFound if the notification does not exist or
	// belongs to someone else.
	MarkRead(ctx context.Context, recipientID, id uuid.UUID) error

	// MarkAllRead flags every unread notification of the recipient and
	// returns how many changed.
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)

	// WithTx returns a new NotificationStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
