// Package recurrence generates the next instance of completed recurring
// tasks.
//
// Each candidate is handled in its own transaction that first claims the
// task's watermark with a compare-and-swap. Two overlapping passes can both
// see the same candidate but only one claim succeeds, so a period never gets
// two children.
package recurrence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/metrics"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/realtime"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// DefaultBatchSize caps candidates handled per pass.
const DefaultBatchSize = 500

// Candidate outcomes, used as the metrics result label.
const (
	outcomeCreated = "created"
	outcomeClaimed = "claimed_elsewhere"
	outcomeExists  = "child_exists"
	outcomeEnded   = "ended"
	outcomeError   = "error"
)

// Generator creates child tasks for recurring tasks that were completed.
type Generator struct {
	tasks   store.TaskStore
	tx      store.Transactor
	emitter realtime.Emitter
	batch   int
	now     func() time.Time
	logger  *slog.Logger
}

// NewGenerator creates a Generator. emitter may be nil.
func NewGenerator(
	tasks store.TaskStore,
	tx store.Transactor,
	emitter realtime.Emitter,
	logger *slog.Logger,
) *Generator {
	if tasks == nil || tx == nil {
		panic("recurrence generator requires a task store and a transactor")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		tasks:   tasks,
		tx:      tx,
		emitter: emitter,
		batch:   DefaultBatchSize,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.With("component", "recurrence_generator"),
	}
}

// ProcessRecurringTasks runs one pass and returns the children it created.
// A failing candidate is logged and does not stop the others; only a failure
// to list candidates is returned.
func (g *Generator) ProcessRecurringTasks(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)
	start := time.Now()
	defer func() { metrics.RecurrenceRunDuration.Observe(time.Since(start).Seconds()) }()

	candidates, err := g.tasks.ListRecurrenceCandidates(ctx, g.now(), g.batch)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurrence candidates: %w", err)
	}

	var created []*domain.Task
	for _, parent := range candidates {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}

		child, outcome, err := g.processOne(ctx, parent)
		metrics.RecurrenceCandidates.WithLabelValues(outcome).Inc()
		if err != nil {
			log.Error("failed to generate recurring task",
				"task_id", parent.ID,
				"error", err)
			continue
		}
		if child == nil {
			log.Debug("no recurring instance generated",
				"task_id", parent.ID,
				"outcome", outcome)
			continue
		}

		metrics.RecurrenceChildren.Inc()
		created = append(created, child)
		log.Info("generated recurring task",
			"parent_id", parent.ID,
			"task_id", child.ID,
			"due_date", child.DueDate)
		g.announce(ctx, log, child)
	}

	log.Info("recurrence pass finished",
		"candidates", len(candidates),
		"created", len(created))
	return created, nil
}

func (g *Generator) processOne(ctx context.Context, parent *domain.Task) (*domain.Task, string, error) {
	if parent.Recurrence == nil {
		return nil, outcomeError, errors.New("task has no recurrence settings")
	}

	var (
		child   *domain.Task
		outcome string
	)
	err := g.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := g.tasks
		if tx != nil {
			tasks = g.tasks.WithTx(tx)
		}
		now := g.now()

		claimed, err := tasks.ClaimRecurrence(ctx, parent.ID, parent.Recurrence.LastGenerated, now)
		if err != nil {
			return fmt.Errorf("failed to claim recurrence: %w", err)
		}
		if !claimed {
			outcome = outcomeClaimed
			return nil
		}

		base := BaseDate(parent, now)
		exists, err := tasks.HasChildDueAfter(ctx, parent.ID, base)
		if err != nil {
			return fmt.Errorf("failed to check existing instances: %w", err)
		}
		if exists {
			outcome = outcomeExists
			return nil
		}

		next := NextDueDate(base, parent.Recurrence.Pattern, parent.Recurrence.Interval)
		if end := parent.Recurrence.EndDate; end != nil && next.After(*end) {
			outcome = outcomeEnded
			return nil
		}

		c := NewChild(parent, next, now)
		if err := tasks.Create(ctx, c); err != nil {
			return fmt.Errorf("failed to create recurring instance: %w", err)
		}
		child = c
		outcome = outcomeCreated
		return nil
	})
	if err != nil {
		return nil, outcomeError, err
	}
	return child, outcome, nil
}

func (g *Generator) announce(ctx context.Context, log *slog.Logger, child *domain.Task) {
	if g.emitter == nil {
		return
	}
	if err := g.emitter.Emit(ctx, realtime.ProjectChannel(child.ProjectID), realtime.EventTaskCreated, child); err != nil {
		log.Warn("failed to announce recurring task", "task_id", child.ID, "error", err)
	}
}

// BaseDate is the instant the next due date is computed from: the parent's
// due date, else its completion time, else now.
func BaseDate(parent *domain.Task, now time.Time) time.Time {
	switch {
	case parent.DueDate != nil:
		return *parent.DueDate
	case parent.CompletedAt != nil:
		return *parent.CompletedAt
	default:
		return now
	}
}

// NextDueDate advances base by one period. Biweekly is always 14 days and
// ignores interval. Unknown patterns advance a week. Monthly uses calendar
// months, so the 31st may roll into the following month.
func NextDueDate(base time.Time, pattern domain.RecurrencePattern, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}
	switch pattern {
	case domain.RecurrenceDaily:
		return base.AddDate(0, 0, interval)
	case domain.RecurrenceWeekly:
		return base.AddDate(0, 0, 7*interval)
	case domain.RecurrenceBiweekly:
		return base.AddDate(0, 0, 14)
	case domain.RecurrenceMonthly:
		return base.AddDate(0, interval, 0)
	default:
		return base.AddDate(0, 0, 7)
	}
}

// NewChild builds the next instance of parent, due at due.
func NewChild(parent *domain.Task, due time.Time, now time.Time) *domain.Task {
	src := parent.Clone()
	parentID := parent.ID

	child := &domain.Task{
		ID:             uuid.New(),
		OrganizationID: src.OrganizationID,
		ProjectID:      src.ProjectID,
		Title:          src.Title,
		Description:    src.Description,
		Status:         domain.TaskStatusTodo,
		Priority:       src.Priority,
		AssigneeID:     src.AssigneeID,
		ReporterID:     src.ReporterID,
		Tags:           src.Tags,
		DueDate:        &due,
		ParentTaskID:   &parentID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if src.Recurrence != nil {
		rec := *src.Recurrence
		rec.LastGenerated = nil
		child.Recurrence = &rec
	}
	return child
}
