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

// MockRuleStore implements store.RuleStore for testing
type MockRuleStore struct {
	ListActiveByTriggerFn func(
		ctx context.Context,
		projectID uuid.UUID,
		trigger domain.TriggerType,
		value string,
	) ([]*domain.AutomationRule, error)

	mu    sync.RWMutex
	Rules []*domain.AutomationRule
}

// NewMockRuleStore creates a new mock store seeded with rules
func NewMockRuleStore(rules ...*domain.AutomationRule) *MockRuleStore {
	return &MockRuleStore{Rules: rules}
}

// Create implements store.RuleStore
func (m *MockRuleStore) Create(ctx context.Context, rule *domain.AutomationRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rules = append(m.Rules, rule)
	return nil
}

// ListActiveByTrigger implements store.RuleStore
func (m *MockRuleStore) ListActiveByTrigger(
	ctx context.Context,
	projectID uuid.UUID,
	trigger domain.TriggerType,
	value string,
) ([]*domain.AutomationRule, error) {
	if m.ListActiveByTriggerFn != nil {
		return m.ListActiveByTriggerFn(ctx, projectID, trigger, value)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AutomationRule
	for _, r := range m.Rules {
		if r.Active && r.ProjectID == projectID && r.TriggerType == trigger && r.TriggerValue == value {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// WithTx implements store.RuleStore
func (m *MockRuleStore) WithTx(tx *sql.Tx) store.RuleStore {
	return m
}
