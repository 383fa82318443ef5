package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

const defaultNotificationLimit = 50

// PostgresNotificationStore implements the store.NotificationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of the
// NotificationStore interface. If logger is nil, a default logger will be used.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()))
		return err
	}

	query := `
		INSERT INTO notifications
			(id, recipient_id, sender_id, type, entity_id, entity_kind, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	sender := uuid.NullUUID{UUID: n.SenderID, Valid: n.SenderID != uuid.Nil}
	_, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		sender,
		string(n.Type),
		n.Entity.ID,
		string(n.Entity.Kind),
		n.Message,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()),
			slog.String("recipient_id", n.RecipientID.String()))
		return store.NewStoreError("notification", "create", "insert failed", MapError(err))
	}

	log.Debug("notification created",
		slog.String("notification_id", n.ID.String()),
		slog.String("recipient_id", n.RecipientID.String()),
		slog.String("type", string(n.Type)))
	return nil
}

// ListByRecipient implements store.NotificationStore.ListByRecipient
func (s *PostgresNotificationStore) ListByRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	limit int,
	unreadOnly bool,
) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultNotificationLimit
	}

	query := `
		SELECT id, recipient_id, sender_id, type, entity_id, entity_kind, message, read, created_at
		FROM notifications
		WHERE recipient_id = $1 AND ($2 = FALSE OR read = FALSE)
		ORDER BY created_at DESC, id
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, recipientID, unreadOnly, limit)
	if err != nil {
		log.Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("recipient_id", recipientID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Notification
	for rows.Next() {
		var (
			n      domain.Notification
			sender uuid.NullUUID
			typ    string
			kind   string
		)
		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&sender,
			&typ,
			&n.Entity.ID,
			&kind,
			&n.Message,
			&n.Read,
			&n.CreatedAt,
		); err != nil {
			return nil, MapError(err)
		}
		if sender.Valid {
			n.SenderID = sender.UUID
		}
		n.Type = domain.NotificationType(typ)
		n.Entity.Kind = domain.EntityKind(kind)
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// MarkRead implements store.NotificationStore.MarkRead
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`,
		id, recipientID)
	if err != nil {
		log.Error("failed to mark notification read",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}

// MarkAllRead implements store.NotificationStore.MarkAllRead
func (s *PostgresNotificationStore) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND read = FALSE`,
		recipientID)
	if err != nil {
		return 0, MapError(err)
	}
	return result.RowsAffected()
}

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{
		db:     tx,
		logger: s.logger,
	}
}
