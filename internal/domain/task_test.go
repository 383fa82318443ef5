package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validTask() *Task {
	assignee := uuid.New()
	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &Task{
		ID:         uuid.New(),
		ProjectID:  uuid.New(),
		Title:      "Write report",
		Status:     TaskStatusTodo,
		Priority:   TaskPriorityMedium,
		AssigneeID: &assignee,
		ReporterID: uuid.New(),
		Tags:       []string{"ops"},
		DueDate:    &due,
		Recurrence: &Recurrence{Enabled: true, Pattern: RecurrenceWeekly, Interval: 1},
	}
}

func TestTaskValidate(t *testing.T) {
	assert.NoError(t, validTask().Validate())

	tests := []struct {
		name   string
		mutate func(*Task)
		want   error
	}{
		{"missing id", func(t *Task) { t.ID = uuid.Nil }, ErrEmptyTaskID},
		{"missing project", func(t *Task) { t.ProjectID = uuid.Nil }, ErrEmptyTaskProject},
		{"missing title", func(t *Task) { t.Title = "" }, ErrEmptyTaskTitle},
		{"bad status", func(t *Task) { t.Status = "blocked" }, ErrInvalidTaskStatus},
		{"bad priority", func(t *Task) { t.Priority = "critical" }, ErrInvalidPriority},
		{"recurrence without pattern", func(t *Task) { t.Recurrence.Pattern = "" }, ErrInvalidRecurrence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(task)
			assert.ErrorIs(t, task.Validate(), tt.want)
		})
	}
}

func TestTaskCloneIsDeep(t *testing.T) {
	orig := validTask()
	c := orig.Clone()

	*c.AssigneeID = uuid.New()
	*c.DueDate = c.DueDate.Add(time.Hour)
	c.Tags[0] = "changed"
	c.Recurrence.Interval = 4

	assert.NotEqual(t, *orig.AssigneeID, *c.AssigneeID)
	assert.NotEqual(t, *orig.DueDate, *c.DueDate)
	assert.Equal(t, "ops", orig.Tags[0])
	assert.Equal(t, 1, orig.Recurrence.Interval)
	assert.Nil(t, (*Task)(nil).Clone())
}

func TestAssigneeChanged(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	assert.False(t, AssigneeChanged(&Task{}, &Task{}))
	assert.True(t, AssigneeChanged(&Task{}, &Task{AssigneeID: &a}))
	assert.True(t, AssigneeChanged(&Task{AssigneeID: &a}, &Task{}))
	assert.True(t, AssigneeChanged(&Task{AssigneeID: &a}, &Task{AssigneeID: &b}))

	same := a
	assert.False(t, AssigneeChanged(&Task{AssigneeID: &a}, &Task{AssigneeID: &same}))
}

func TestAutomationRuleValidate(t *testing.T) {
	valid := AutomationRule{
		TriggerType:  TriggerStatusChange,
		TriggerValue: "done",
		ActionType:   ActionArchiveTask,
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.TriggerType = "title_change"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidTrigger)

	bad = valid
	bad.ActionType = "delete_task"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidAction)

	bad = valid
	bad.ActionType = ActionAssignUser
	assert.ErrorIs(t, bad.Validate(), ErrEmptyRuleValue)

	bad = valid
	bad.TriggerValue = ""
	assert.ErrorIs(t, bad.Validate(), ErrEmptyRuleValue)
}
