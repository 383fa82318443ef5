package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
)

// RuleStore defines the interface for automation rule persistence.
type RuleStore interface {
	// Create saves a new rule after validating it.
	Create(ctx context.Context, rule *domain.AutomationRule) error

	// ListActiveByTrigger returns the project's active rules whose trigger
	// type and value match exactly, ordered by creation time and then ID.
	ListActiveByTrigger(
		ctx context.Context,
		projectID uuid.UUID,
		trigger domain.TriggerType,
		value string,
	) ([]*domain.AutomationRule, error)

	// WithTx returns a new RuleStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) RuleStore
}
