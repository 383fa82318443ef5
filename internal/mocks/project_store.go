package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// MockProjectStore implements store.ProjectStore for testing
type MockProjectStore struct {
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	mu       sync.RWMutex
	Projects map[uuid.UUID]*domain.Project
}

// NewMockProjectStore creates a new mock store seeded with projects
func NewMockProjectStore(projects ...*domain.Project) *MockProjectStore {
	m := &MockProjectStore{Projects: make(map[uuid.UUID]*domain.Project)}
	for _, p := range projects {
		m.Projects[p.ID] = p
	}
	return m
}

// GetByID implements store.ProjectStore
func (m *MockProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.Projects[id]
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

// IsMember implements store.ProjectStore
func (m *MockProjectStore) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	p, err := m.GetByID(ctx, projectID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return p.HasMember(userID), nil
}

// WithTx implements store.ProjectStore
func (m *MockProjectStore) WithTx(tx *sql.Tx) store.ProjectStore {
	return m
}
