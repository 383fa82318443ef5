// Package automation runs per-project automation rules against a task after
// its status or priority changed.
//
// Rules are single trigger, single action. All matching rules are applied to
// one working copy of the freshly read task, in creation order, and the
// result is persisted with a single version-checked write. When another
// writer got there first the task is re-read and the rules re-applied.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/metrics"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// DefaultMaxAttempts bounds read-apply-write cycles per Run.
const DefaultMaxAttempts = 3

var (
	// ErrTooManyConflicts is returned when every write attempt lost a race.
	ErrTooManyConflicts = errors.New("automation write kept conflicting")

	// ErrInvalidActionValue marks a rule whose action value cannot be used.
	ErrInvalidActionValue = errors.New("invalid action value")

	// ErrNoProjectLead is returned when project_lead is requested for a
	// project without a lead.
	ErrNoProjectLead = errors.New("project has no lead")

	// ErrTaskNotInProject is returned when the stored task belongs to a
	// different project than the rules being run.
	ErrTaskNotInProject = errors.New("task does not belong to rule project")
)

// Outcome reports what a Run did. Task is the latest known state.
type Outcome struct {
	Changed         bool
	AssigneeChanged bool
	Applied         []uuid.UUID
	Task            *domain.Task
}

// Engine evaluates and executes automation rules.
type Engine struct {
	rules       store.RuleStore
	tasks       store.TaskStore
	projects    store.ProjectStore
	users       store.UserStore
	maxAttempts int
	now         func() time.Time
	logger      *slog.Logger
}

// NewEngine creates a rule engine.
func NewEngine(
	rules store.RuleStore,
	tasks store.TaskStore,
	projects store.ProjectStore,
	users store.UserStore,
	logger *slog.Logger,
) *Engine {
	if rules == nil || tasks == nil || projects == nil || users == nil {
		panic("automation engine stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rules:       rules,
		tasks:       tasks,
		projects:    projects,
		users:       users,
		maxAttempts: DefaultMaxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.With("component", "automation_engine"),
	}
}

// Run applies the project's active rules for (trigger, value) to task.
// Only the task's ID is taken from the argument; the current state is read
// from storage and must belong to projectID. A rule that cannot be applied
// is logged and skipped without affecting the others.
func (e *Engine) Run(
	ctx context.Context,
	projectID uuid.UUID,
	trigger domain.TriggerType,
	value string,
	task *domain.Task,
) (Outcome, error) {
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		"task_id", task.ID,
		"trigger", trigger,
		"trigger_value", value)

	rules, err := e.rules.ListActiveByTrigger(ctx, projectID, trigger, value)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load automation rules: %w", err)
	}
	if len(rules) == 0 {
		return Outcome{Task: task}, nil
	}
	log.Debug("running automation rules", "count", len(rules))

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		current, err := e.tasks.GetByID(ctx, task.ID)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to load task for automation: %w", err)
		}
		if current.ProjectID != projectID {
			log.Warn("automation skipped: task is not in the rule project",
				"project_id", projectID,
				"task_project_id", current.ProjectID)
			return Outcome{Task: current}, fmt.Errorf("%w: task %s", ErrTaskNotInProject, current.ID)
		}

		working := current.Clone()
		applied := e.applyAll(ctx, log, projectID, rules, working)
		if len(applied) == 0 {
			log.Debug("automation rules made no changes")
			return Outcome{Task: current}, nil
		}

		err = e.tasks.UpdateIfVersion(ctx, working)
		if err == nil {
			log.Info("automation rules applied",
				"applied", len(applied),
				"version", working.Version)
			return Outcome{
				Changed:         true,
				AssigneeChanged: domain.AssigneeChanged(current, working),
				Applied:         applied,
				Task:            working,
			}, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return Outcome{}, fmt.Errorf("failed to persist automation result: %w", err)
		}

		metrics.RuleWriteConflicts.Inc()
		log.Debug("automation write conflicted, retrying", "attempt", attempt)
	}

	return Outcome{}, fmt.Errorf("%w: %d attempts", ErrTooManyConflicts, e.maxAttempts)
}

// applyAll mutates task by each rule in order and returns the IDs of the
// rules that changed something. Later rules win over earlier ones.
func (e *Engine) applyAll(
	ctx context.Context,
	log *slog.Logger,
	projectID uuid.UUID,
	rules []*domain.AutomationRule,
	task *domain.Task,
) []uuid.UUID {
	var applied []uuid.UUID
	for _, rule := range rules {
		changed, err := e.apply(ctx, projectID, rule, task)
		switch {
		case err != nil:
			metrics.RecordRuleAction(string(rule.ActionType), metrics.ResultError)
			log.Warn("skipping automation rule",
				"rule_id", rule.ID,
				"action", rule.ActionType,
				"error", err)
		case changed:
			metrics.RecordRuleAction(string(rule.ActionType), metrics.ResultOK)
			applied = append(applied, rule.ID)
		default:
			metrics.RecordRuleAction(string(rule.ActionType), metrics.ResultSkipped)
		}
	}
	return applied
}

func (e *Engine) apply(
	ctx context.Context,
	projectID uuid.UUID,
	rule *domain.AutomationRule,
	task *domain.Task,
) (bool, error) {
	if err := rule.Validate(); err != nil {
		return false, err
	}

	switch rule.ActionType {
	case domain.ActionArchiveTask:
		if task.Archived {
			return false, nil
		}
		task.Archived = true
		return true, nil

	case domain.ActionAssignUser:
		assignee, err := e.resolveAssignee(ctx, projectID, rule.ActionValue)
		if err != nil {
			return false, err
		}
		if task.AssigneeID != nil && *task.AssigneeID == assignee {
			return false, nil
		}
		task.AssigneeID = &assignee
		return true, nil

	case domain.ActionSetDueDate:
		due, err := ParseDueDate(rule.ActionValue, e.now())
		if err != nil {
			return false, err
		}
		if task.DueDate != nil && task.DueDate.Equal(due) {
			return false, nil
		}
		task.DueDate = &due
		return true, nil
	}
	return false, fmt.Errorf("%w: %q", domain.ErrInvalidAction, rule.ActionType)
}

// resolveAssignee turns an assign_user value into a user ID. The
// project_lead sentinel is resolved at execution time.
func (e *Engine) resolveAssignee(ctx context.Context, projectID uuid.UUID, value string) (uuid.UUID, error) {
	if value == domain.AssignProjectLead {
		project, err := e.projects.GetByID(ctx, projectID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to load project: %w", err)
		}
		if project.LeadID == nil {
			return uuid.Nil, ErrNoProjectLead
		}
		return *project.LeadID, nil
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: assignee %q", ErrInvalidActionValue, value)
	}
	if _, err := e.users.GetByID(ctx, id); err != nil {
		return uuid.Nil, fmt.Errorf("assignee %s: %w", id, err)
	}
	return id, nil
}

// ParseDueDate interprets a set_due_date value. "+N" and "N" mean N days
// after now; "YYYY-MM-DD" is midnight UTC of that day; RFC 3339 timestamps
// are used as given.
func ParseDueDate(value string, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty due date", ErrInvalidActionValue)
	}

	if days, err := strconv.Atoi(strings.TrimPrefix(v, "+")); err == nil {
		if days < 0 {
			return time.Time{}, fmt.Errorf("%w: negative offset %q", ErrInvalidActionValue, value)
		}
		return now.UTC().AddDate(0, 0, days), nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: due date %q", ErrInvalidActionValue, value)
}
