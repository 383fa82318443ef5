package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// MockUserStore implements store.UserStore for testing
type MockUserStore struct {
	GetByIDFn                   func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindProjectMembersByNamesFn func(ctx context.Context, projectID uuid.UUID, names []string) ([]*domain.User, error)

	// Projects answers membership for FindProjectMembersByNames. Without
	// it no user is a member of any project.
	Projects store.ProjectStore

	mu    sync.RWMutex
	Users map[uuid.UUID]*domain.User
}

// NewMockUserStore creates a new mock store seeded with users
func NewMockUserStore(users ...*domain.User) *MockUserStore {
	m := &MockUserStore{Users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		m.Users[u.ID] = u
	}
	return m
}

// GetByID implements store.UserStore
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// FindProjectMembersByNames implements store.UserStore
func (m *MockUserStore) FindProjectMembersByNames(
	ctx context.Context,
	projectID uuid.UUID,
	names []string,
) ([]*domain.User, error) {
	if m.FindProjectMembersByNamesFn != nil {
		return m.FindProjectMembersByNamesFn(ctx, projectID, names)
	}
	if m.Projects == nil {
		return nil, nil
	}

	m.mu.RLock()
	var matched []*domain.User
	for _, u := range m.Users {
		for _, name := range names {
			if strings.EqualFold(u.Name, name) {
				cp := *u
				matched = append(matched, &cp)
				break
			}
		}
	}
	m.mu.RUnlock()

	var out []*domain.User
	for _, u := range matched {
		ok, err := m.Projects.IsMember(ctx, projectID, u.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// WithTx implements store.UserStore
func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}
