package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the workflow column a task sits in.
type TaskStatus string

// Task statuses.
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// TaskPriority orders tasks by urgency.
type TaskPriority string

// Task priorities.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// RecurrencePattern names the period between generated task instances.
type RecurrencePattern string

// Recurrence patterns.
const (
	RecurrenceDaily    RecurrencePattern = "daily"
	RecurrenceWeekly   RecurrencePattern = "weekly"
	RecurrenceBiweekly RecurrencePattern = "biweekly"
	RecurrenceMonthly  RecurrencePattern = "monthly"
)

// Task validation errors
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskProject  = errors.New("task project cannot be empty")
	ErrEmptyTaskTitle    = errors.New("task title cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrInvalidPriority   = errors.New("invalid task priority")
	ErrInvalidRecurrence = errors.New("invalid recurrence pattern")
)

// Recurrence describes how a completed task spawns its next instance.
// LastGenerated is the watermark of the last generation pass that handled
// the task.
type Recurrence struct {
	Enabled       bool              `json:"enabled"`
	Pattern       RecurrencePattern `json:"pattern"`
	Interval      int               `json:"interval"`
	EndDate       *time.Time        `json:"end_date,omitempty"`
	LastGenerated *time.Time        `json:"last_generated,omitempty"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	ProjectID      uuid.UUID    `json:"project_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	AssigneeID     *uuid.UUID   `json:"assignee_id,omitempty"`
	ReporterID     uuid.UUID    `json:"reporter_id"`
	Tags           []string     `json:"tags"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	Archived       bool         `json:"archived"`
	ParentTaskID   *uuid.UUID   `json:"parent_task_id,omitempty"`
	Recurrence     *Recurrence  `json:"recurrence,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`

	// Version increases on every persisted write and guards
	// read-modify-write cycles against lost updates.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.ProjectID == uuid.Nil {
		return ErrEmptyTaskProject
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if !IsValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}
	if !IsValidTaskPriority(t.Priority) {
		return ErrInvalidPriority
	}
	if t.Recurrence != nil && t.Recurrence.Enabled && t.Recurrence.Pattern == "" {
		return ErrInvalidRecurrence
	}
	return nil
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.AssigneeID = cloneUUID(t.AssigneeID)
	c.ParentTaskID = cloneUUID(t.ParentTaskID)
	c.DueDate = cloneTime(t.DueDate)
	c.CompletedAt = cloneTime(t.CompletedAt)
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	if t.Recurrence != nil {
		r := *t.Recurrence
		r.EndDate = cloneTime(t.Recurrence.EndDate)
		r.LastGenerated = cloneTime(t.Recurrence.LastGenerated)
		c.Recurrence = &r
	}
	return &c
}

// AssigneeChanged reports whether the assignee differs between before and after.
func AssigneeChanged(before, after *Task) bool {
	return !sameUUID(before.AssigneeID, after.AssigneeID)
}

// IsValidTaskStatus reports whether s is a known status.
func IsValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	default:
		return false
	}
}

// IsValidTaskPriority reports whether p is a known priority.
func IsValidTaskPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	default:
		return false
	}
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
