package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TriggerType is the task field change that fires a rule.
type TriggerType string

// Trigger types.
const (
	TriggerStatusChange   TriggerType = "status_change"
	TriggerPriorityChange TriggerType = "priority_change"
)

// ActionType is the mutation a rule applies.
type ActionType string

// Action types.
const (
	ActionArchiveTask ActionType = "archive_task"
	ActionAssignUser  ActionType = "assign_user"
	ActionSetDueDate  ActionType = "set_due_date"
)

// AssignProjectLead is the assign_user value resolved to the project's
// current lead at execution time.
const AssignProjectLead = "project_lead"

// Automation rule validation errors
var (
	ErrInvalidTrigger = errors.New("invalid rule trigger")
	ErrInvalidAction  = errors.New("invalid rule action")
	ErrEmptyRuleValue = errors.New("rule value cannot be empty")
)

// AutomationRule maps one (trigger, value) pair to one action on the task
// that triggered it.
type AutomationRule struct {
	ID           uuid.UUID   `json:"id"`
	ProjectID    uuid.UUID   `json:"project_id"`
	TriggerType  TriggerType `json:"trigger_type"`
	TriggerValue string      `json:"trigger_value"`
	ActionType   ActionType  `json:"action_type"`
	ActionValue  string      `json:"action_value"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Validate checks the rule's static shape. Values that can only be checked
// against live data (user IDs, dates) are checked when the rule runs.
func (r *AutomationRule) Validate() error {
	switch r.TriggerType {
	case TriggerStatusChange, TriggerPriorityChange:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTrigger, r.TriggerType)
	}
	if r.TriggerValue == "" {
		return fmt.Errorf("%w: trigger value", ErrEmptyRuleValue)
	}
	switch r.ActionType {
	case ActionArchiveTask:
	case ActionAssignUser, ActionSetDueDate:
		if r.ActionValue == "" {
			return fmt.Errorf("%w: action value", ErrEmptyRuleValue)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, r.ActionType)
	}
	return nil
}
