package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// PostgresRuleStore implements the store.RuleStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRuleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRuleStore creates a new PostgreSQL implementation of the RuleStore interface.
func NewPostgresRuleStore(db store.DBTX, logger *slog.Logger) *PostgresRuleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRuleStore{
		db:     db,
		logger: logger.With(slog.String("component", "rule_store")),
	}
}

// Ensure PostgresRuleStore implements store.RuleStore interface
var _ store.RuleStore = (*PostgresRuleStore)(nil)

// Create implements store.RuleStore.Create
func (s *PostgresRuleStore) Create(ctx context.Context, rule *domain.AutomationRule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rule.Validate(); err != nil {
		log.Warn("rule validation failed during create",
			slog.String("error", err.Error()),
			slog.String("rule_id", rule.ID.String()))
		return err
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO automation_rules
			(id, project_id, trigger_type, trigger_value, action_type, action_value, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rule.ID,
		rule.ProjectID,
		string(rule.TriggerType),
		rule.TriggerValue,
		string(rule.ActionType),
		rule.ActionValue,
		rule.Active,
		rule.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create rule",
			slog.String("error", err.Error()),
			slog.String("rule_id", rule.ID.String()))
		return MapError(err)
	}
	return nil
}

// ListActiveByTrigger implements store.RuleStore.ListActiveByTrigger
func (s *PostgresRuleStore) ListActiveByTrigger(
	ctx context.Context,
	projectID uuid.UUID,
	trigger domain.TriggerType,
	value string,
) ([]*domain.AutomationRule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, trigger_type, trigger_value, action_type, action_value, active, created_at
		FROM automation_rules
		WHERE project_id = $1 AND trigger_type = $2 AND trigger_value = $3 AND active
		ORDER BY created_at, id`,
		projectID, string(trigger), value)
	if err != nil {
		log.Error("failed to list rules",
			slog.String("error", err.Error()),
			slog.String("project_id", projectID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.AutomationRule
	for rows.Next() {
		var (
			r         domain.AutomationRule
			trig, act string
		)
		if err := rows.Scan(
			&r.ID,
			&r.ProjectID,
			&trig,
			&r.TriggerValue,
			&act,
			&r.ActionValue,
			&r.Active,
			&r.CreatedAt,
		); err != nil {
			return nil, MapError(err)
		}
		r.TriggerType = domain.TriggerType(trig)
		r.ActionType = domain.ActionType(act)
		out = append(out, &r)
	}
	return out, MapError(rows.Err())
}

// WithTx implements store.RuleStore.WithTx
func (s *PostgresRuleStore) WithTx(tx *sql.Tx) store.RuleStore {
	return &PostgresRuleStore{
		db:     tx,
		logger: s.logger,
	}
}
