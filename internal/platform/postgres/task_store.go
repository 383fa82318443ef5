package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

const defaultCandidateLimit = 500

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskColumns = `
	id, organization_id, project_id, title, description, status, priority,
	assignee_id, reporter_id, tags, due_date, archived, parent_task_id,
	recurrence_enabled, recurrence_pattern, recurrence_interval,
	recurrence_end_date, recurrence_last_generated,
	completed_at, version, created_at, updated_at`

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t             domain.Task
		status        string
		priority      string
		assignee      uuid.NullUUID
		parent        uuid.NullUUID
		dueDate       sql.NullTime
		completedAt   sql.NullTime
		recEnabled    bool
		recPattern    string
		recInterval   int
		recEndDate    sql.NullTime
		lastGenerated sql.NullTime
	)
	typeMap := pgtype.NewMap()

	err := row.Scan(
		&t.ID,
		&t.OrganizationID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&assignee,
		&t.ReporterID,
		typeMap.SQLScanner(&t.Tags),
		&dueDate,
		&t.Archived,
		&parent,
		&recEnabled,
		&recPattern,
		&recInterval,
		&recEndDate,
		&lastGenerated,
		&completedAt,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	t.AssigneeID = fromNullUUID(assignee)
	t.ParentTaskID = fromNullUUID(parent)
	t.DueDate = fromNullTime(dueDate)
	t.CompletedAt = fromNullTime(completedAt)
	if recEnabled || recPattern != "" {
		t.Recurrence = &domain.Recurrence{
			Enabled:       recEnabled,
			Pattern:       domain.RecurrencePattern(recPattern),
			Interval:      recInterval,
			EndDate:       fromNullTime(recEndDate),
			LastGenerated: fromNullTime(lastGenerated),
		}
	}
	return &t, nil
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	task.Version = 1

	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	rec := task.Recurrence
	if rec == nil {
		rec = &domain.Recurrence{Interval: 1}
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.OrganizationID,
		task.ProjectID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		toNullUUID(task.AssigneeID),
		task.ReporterID,
		tags,
		toNullTime(task.DueDate),
		task.Archived,
		toNullUUID(task.ParentTaskID),
		rec.Enabled,
		string(rec.Pattern),
		rec.Interval,
		toNullTime(rec.EndDate),
		toNullTime(rec.LastGenerated),
		toNullTime(task.CompletedAt),
		task.Version,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("project_id", task.ProjectID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return t, nil
}

// UpdateIfVersion implements store.TaskStore.UpdateIfVersion
func (s *PostgresTaskStore) UpdateIfVersion(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	updatedAt := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, priority = $2, assignee_id = $3, due_date = $4, archived = $5,
			version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8`,
		string(task.Status),
		string(task.Priority),
		toNullUUID(task.AssigneeID),
		toNullTime(task.DueDate),
		task.Archived,
		updatedAt,
		task.ID,
		task.Version,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrConflict); err != nil {
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
		var exists bool
		if qErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, task.ID,
		).Scan(&exists); qErr != nil {
			return MapError(qErr)
		}
		if !exists {
			return store.ErrTaskNotFound
		}
		log.Debug("task version check failed",
			slog.String("task_id", task.ID.String()),
			slog.Int64("expected_version", task.Version))
		return store.ErrConflict
	}

	task.Version++
	task.UpdatedAt = updatedAt
	return nil
}

// ListRecurrenceCandidates implements store.TaskStore.ListRecurrenceCandidates
func (s *PostgresTaskStore) ListRecurrenceCandidates(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*domain.Task, error) {
	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE recurrence_enabled
			AND status = 'done'
			AND (recurrence_last_generated IS NULL
				OR recurrence_last_generated < $1)
		ORDER BY recurrence_last_generated NULLS FIRST, id
		LIMIT $2`,
		before, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		out = append(out, t)
	}
	return out, MapError(rows.Err())
}

// ClaimRecurrence implements store.TaskStore.ClaimRecurrence
func (s *PostgresTaskStore) ClaimRecurrence(
	ctx context.Context,
	id uuid.UUID,
	seen *time.Time,
	at time.Time,
) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET recurrence_last_generated = $1
		WHERE id = $2 AND recurrence_last_generated IS NOT DISTINCT FROM $3`,
		at, id, toNullTime(seen))
	if err != nil {
		return false, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// HasChildDueAfter implements store.TaskStore.HasChildDueAfter
func (s *PostgresTaskStore) HasChildDueAfter(ctx context.Context, parentID uuid.UUID, after time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE parent_task_id = $1 AND due_date > $2)`,
		parentID, after,
	).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

func toNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func fromNullUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
