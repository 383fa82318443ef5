package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
)

// TaskStore defines the task persistence operations used by the rule
// engine and the recurrence generator.
type TaskStore interface {
	// Create saves a new task with Version 1.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// UpdateIfVersion persists the mutable fields of task (status, priority,
	// assignee, due date, archived) only if the stored version still equals
	// task.Version. On success task.Version is incremented.
	// Returns ErrConflict if the stored version differs and
	// ErrTaskNotFound if the task does not exist.
	UpdateIfVersion(ctx context.Context, task *domain.Task) error

	// ListRecurrenceCandidates returns completed tasks with recurrence
	// enabled whose watermark is absent or earlier than before, least
	// recently scanned first.
	ListRecurrenceCandidates(ctx context.Context, before time.Time, limit int) ([]*domain.Task, error)

	// ClaimRecurrence moves the recurrence watermark of a task from seen to
	// at, if it is still seen. It returns false when another pass got there
	// first.
	ClaimRecurrence(ctx context.Context, id uuid.UUID, seen *time.Time, at time.Time) (bool, error)

	// HasChildDueAfter reports whether a task generated from parentID has a
	// due date strictly after the given instant.
	HasChildDueAfter(ctx context.Context, parentID uuid.UUID, after time.Time) (bool, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
