package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. Tasks are stored as
// clones so callers cannot mutate stored state behind the store's back.
type MockTaskStore struct {
	CreateFn          func(ctx context.Context, task *domain.Task) error
	GetByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateIfVersionFn func(ctx context.Context, task *domain.Task) error
	ClaimRecurrenceFn func(ctx context.Context, id uuid.UUID, seen *time.Time, at time.Time) (bool, error)

	mu          sync.Mutex
	Tasks       map[uuid.UUID]*domain.Task
	Created     []*domain.Task
	UpdateCalls int
}

// NewMockTaskStore creates a new mock store seeded with tasks
func NewMockTaskStore(tasks ...*domain.Task) *MockTaskStore {
	m := &MockTaskStore{Tasks: make(map[uuid.UUID]*domain.Task)}
	for _, t := range tasks {
		m.Put(t)
	}
	return m
}

// Put stores a clone of task, replacing any existing entry.
func (m *MockTaskStore) Put(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tasks[task.ID] = task.Clone()
}

// Get returns a clone of the stored task, or nil.
func (m *MockTaskStore) Get(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Tasks[id].Clone()
}

// Create implements store.TaskStore
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	task.Version = 1
	m.Tasks[task.ID] = task.Clone()
	m.Created = append(m.Created, task.Clone())
	return nil
}

// GetByID implements store.TaskStore
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// UpdateIfVersion implements store.TaskStore
func (m *MockTaskStore) UpdateIfVersion(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	m.UpdateCalls++
	m.mu.Unlock()

	if m.UpdateIfVersionFn != nil {
		return m.UpdateIfVersionFn(ctx, task)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if stored.Version != task.Version {
		return store.ErrConflict
	}
	task.Version++
	task.UpdatedAt = time.Now().UTC()
	m.Tasks[task.ID] = task.Clone()
	return nil
}

// ListRecurrenceCandidates implements store.TaskStore
func (m *MockTaskStore) ListRecurrenceCandidates(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, t := range m.Tasks {
		if isRecurrenceCandidate(t, before) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func isRecurrenceCandidate(t *domain.Task, before time.Time) bool {
	if t.Recurrence == nil || !t.Recurrence.Enabled || t.Status != domain.TaskStatusDone {
		return false
	}
	last := t.Recurrence.LastGenerated
	return last == nil || last.Before(before)
}

// ClaimRecurrence implements store.TaskStore
func (m *MockTaskStore) ClaimRecurrence(
	ctx context.Context,
	id uuid.UUID,
	seen *time.Time,
	at time.Time,
) (bool, error) {
	if m.ClaimRecurrenceFn != nil {
		return m.ClaimRecurrenceFn(ctx, id, seen, at)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tasks[id]
	if !ok || t.Recurrence == nil {
		return false, nil
	}
	current := t.Recurrence.LastGenerated
	switch {
	case current == nil && seen == nil:
	case current != nil && seen != nil && current.Equal(*seen):
	default:
		return false, nil
	}
	stamp := at
	t.Recurrence.LastGenerated = &stamp
	return true, nil
}

// HasChildDueAfter implements store.TaskStore
func (m *MockTaskStore) HasChildDueAfter(ctx context.Context, parentID uuid.UUID, after time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.Tasks {
		if t.ParentTaskID != nil && *t.ParentTaskID == parentID &&
			t.DueDate != nil && t.DueDate.After(after) {
			return true, nil
		}
	}
	return false, nil
}

// WithTx implements store.TaskStore
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

// ChildrenOf returns clones of the tasks generated from parentID.
func (m *MockTaskStore) ChildrenOf(parentID uuid.UUID) []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, t := range m.Tasks {
		if t.ParentTaskID != nil && *t.ParentTaskID == parentID {
			out = append(out, t.Clone())
		}
	}
	return out
}
