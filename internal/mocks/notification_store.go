package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// MockNotificationStore implements store.NotificationStore for testing
type MockNotificationStore struct {
	CreateFn    func(ctx context.Context, n *domain.Notification) error
	CreateError error

	mu            sync.Mutex
	Notifications []*domain.Notification
}

// NewMockNotificationStore creates an empty in-memory notification store
func NewMockNotificationStore() *MockNotificationStore {
	return &MockNotificationStore{}
}

// Create implements store.NotificationStore
func (m *MockNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	if m.CreateError != nil {
		return m.CreateError
	}
	if err := n.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.Notifications = append(m.Notifications, &cp)
	return nil
}

// ListByRecipient implements store.NotificationStore
func (m *MockNotificationStore) ListByRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	limit int,
	unreadOnly bool,
) ([]*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Notification
	for _, n := range m.Notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.Read) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkRead implements store.NotificationStore
func (m *MockNotificationStore) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.Notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			return nil
		}
	}
	return store.ErrNotificationNotFound
}

// MarkAllRead implements store.NotificationStore
func (m *MockNotificationStore) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var changed int64
	for _, n := range m.Notifications {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

// WithTx implements store.NotificationStore
func (m *MockNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return m
}

// ForRecipient returns copies of the stored notifications addressed to id.
func (m *MockNotificationStore) ForRecipient(id uuid.UUID) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Notification
	for _, n := range m.Notifications {
		if n.RecipientID == id {
			out = append(out, *n)
		}
	}
	return out
}

// Count returns the number of stored notifications.
func (m *MockNotificationStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Notifications)
}
