package automation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/metrics"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/mocks"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

var fixedNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

type engineFixture struct {
	project  *domain.Project
	task     *domain.Task
	lead     *domain.User
	member   *domain.User
	tasks    *mocks.MockTaskStore
	rules    *mocks.MockRuleStore
	projects *mocks.MockProjectStore
	users    *mocks.MockUserStore
	engine   *Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	lead := &domain.User{ID: uuid.New(), Email: "lead@example.com", Name: "Lead"}
	member := &domain.User{ID: uuid.New(), Email: "member@example.com", Name: "Member"}
	project := &domain.Project{
		ID:        uuid.New(),
		Name:      "Apollo",
		LeadID:    &lead.ID,
		MemberIDs: []uuid.UUID{member.ID},
	}
	task := &domain.Task{
		ID:         uuid.New(),
		ProjectID:  project.ID,
		Title:      "Write launch notes",
		Status:     domain.TaskStatusDone,
		Priority:   domain.TaskPriorityMedium,
		ReporterID: member.ID,
		Version:    1,
	}

	f := &engineFixture{
		project:  project,
		task:     task,
		lead:     lead,
		member:   member,
		tasks:    mocks.NewMockTaskStore(task),
		rules:    mocks.NewMockRuleStore(),
		projects: mocks.NewMockProjectStore(project),
		users:    mocks.NewMockUserStore(lead, member),
	}
	f.engine = NewEngine(f.rules, f.tasks, f.projects, f.users, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.engine.now = func() time.Time { return fixedNow }
	return f
}

func (f *engineFixture) addRule(action domain.ActionType, value string, createdAt time.Time) *domain.AutomationRule {
	r := &domain.AutomationRule{
		ID:           uuid.New(),
		ProjectID:    f.project.ID,
		TriggerType:  domain.TriggerStatusChange,
		TriggerValue: string(domain.TaskStatusDone),
		ActionType:   action,
		ActionValue:  value,
		Active:       true,
		CreatedAt:    createdAt,
	}
	f.rules.Rules = append(f.rules.Rules, r)
	return r
}

func (f *engineFixture) run(t *testing.T) (Outcome, error) {
	t.Helper()
	return f.engine.Run(context.Background(), f.project.ID, domain.TriggerStatusChange, string(domain.TaskStatusDone), f.task)
}

func TestRun_ArchiveIsSingleWrite(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(domain.ActionArchiveTask, "", fixedNow)

	out, err := f.run(t)

	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.False(t, out.AssigneeChanged)
	assert.Equal(t, 1, f.tasks.UpdateCalls)

	stored := f.tasks.Get(f.task.ID)
	assert.True(t, stored.Archived)
	assert.Equal(t, int64(2), stored.Version)
}

func TestRun_SeveralRulesOneWrite(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(domain.ActionArchiveTask, "", fixedNow.Add(-3*time.Hour))
	f.addRule(domain.ActionAssignUser, f.member.ID.String(), fixedNow.Add(-2*time.Hour))
	f.addRule(domain.ActionSetDueDate, "+3", fixedNow.Add(-time.Hour))

	out, err := f.run(t)

	require.NoError(t, err)
	assert.Len(t, out.Applied, 3)
	assert.True(t, out.AssigneeChanged)
	assert.Equal(t, 1, f.tasks.UpdateCalls)

	stored := f.tasks.Get(f.task.ID)
	assert.True(t, stored.Archived)
	require.NotNil(t, stored.AssigneeID)
	assert.Equal(t, f.member.ID, *stored.AssigneeID)
	require.NotNil(t, stored.DueDate)
	assert.Equal(t, fixedNow.AddDate(0, 0, 3), *stored.DueDate)
}

func TestRun_ProjectLeadResolvedAtExecution(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(domain.ActionAssignUser, domain.AssignProjectLead, fixedNow)

	newLead := uuid.New()
	f.project.LeadID = &newLead

	out, err := f.run(t)

	require.NoError(t, err)
	assert.True(t, out.AssigneeChanged)
	require.NotNil(t, out.Task.AssigneeID)
	assert.Equal(t, newLead, *out.Task.AssigneeID)
}

func TestRun_MalformedRuleSkipped(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(domain.ActionAssignUser, "not-a-uuid", fixedNow.Add(-3*time.Hour))
	f.addRule(domain.ActionSetDueDate, "next tuesday", fixedNow.Add(-2*time.Hour))
	f.addRule(domain.ActionAssignUser, uuid.NewString(), fixedNow.Add(-90*time.Minute))
	archive := f.addRule(domain.ActionArchiveTask, "", fixedNow.Add(-time.Hour))

	out, err := f.run(t)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{archive.ID}, out.Applied)
	stored := f.tasks.Get(f.task.ID)
	assert.True(t, stored.Archived)
	assert.Nil(t, stored.AssigneeID)
	assert.Nil(t, stored.DueDate)
}

func TestRun_NoLeadSkipsAssignment(t *testing.T) {
	f := newEngineFixture(t)
	f.project.LeadID = nil
	f.addRule(domain.ActionAssignUser, domain.AssignProjectLead, fixedNow)

	out, err := f.run(t)

	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Zero(t, f.tasks.UpdateCalls)
}

func TestRun_LastRuleWins(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(domain.ActionSetDueDate, "2026-06-01", fixedNow.Add(-2*time.Hour))
	f.addRule(domain.ActionSetDueDate, "2026-07-01", fixedNow.Add(-time.Hour))

	_, err := f.run(t)

	require.NoError(t, err)
	stored := f.tasks.Get(f.task.ID)
	require.NotNil(t, stored.DueDate)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), *stored.DueDate)
}

func TestRun_NoRulesNoWrite(t *testing.T) {
	f := newEngineFixture(t)

	out, err := f.run(t)

	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Zero(t, f.tasks.UpdateCalls)
}

func TestRun_AlreadyInTargetStateNoWrite(t *testing.T) {
	f := newEngineFixture(t)
	archived := f.task.Clone()
	archived.Archived = true
	f.tasks.Put(archived)
	f.addRule(domain.ActionArchiveTask, "", fixedNow)

	out, err := f.run(t)

	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Zero(t, f.tasks.UpdateCalls)
}

func TestRun_ConflictRereadsAndReapplies(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(domain.ActionArchiveTask, "", fixedNow)

	reads := 0
	f.tasks.GetByIDFn = func(_ context.Context, id uuid.UUID) (*domain.Task, error) {
		reads++
		current := f.tasks.Get(id)
		if reads == 1 {
			// A concurrent writer bumps the priority after our read.
			concurrent := current.Clone()
			concurrent.Priority = domain.TaskPriorityUrgent
			concurrent.Version++
			f.tasks.Put(concurrent)
		}
		return current, nil
	}

	before := testutil.ToFloat64(metrics.RuleWriteConflicts)
	out, err := f.run(t)

	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, 2, reads)
	assert.Equal(t, 2, f.tasks.UpdateCalls)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RuleWriteConflicts))

	stored := f.tasks.Get(f.task.ID)
	assert.True(t, stored.Archived)
	assert.Equal(t, domain.TaskPriorityUrgent, stored.Priority)
	assert.Equal(t, int64(3), stored.Version)
}

func TestRun_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(domain.ActionArchiveTask, "", fixedNow)
	f.tasks.UpdateIfVersionFn = func(context.Context, *domain.Task) error {
		return store.ErrConflict
	}

	_, err := f.run(t)

	assert.ErrorIs(t, err, ErrTooManyConflicts)
	assert.Equal(t, DefaultMaxAttempts, f.tasks.UpdateCalls)
}

func TestRun_StoreErrorsReturned(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(domain.ActionArchiveTask, "", fixedNow)
	dbErr := errors.New("connection reset")
	f.tasks.UpdateIfVersionFn = func(context.Context, *domain.Task) error { return dbErr }

	_, err := f.run(t)
	assert.ErrorIs(t, err, dbErr)

	f.rules.ListActiveByTriggerFn = func(context.Context, uuid.UUID, domain.TriggerType, string) ([]*domain.AutomationRule, error) {
		return nil, dbErr
	}
	_, err = f.run(t)
	assert.ErrorIs(t, err, dbErr)
}

func TestRun_TaskInOtherProjectUntouched(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(domain.ActionArchiveTask, "", fixedNow)
	f.addRule(domain.ActionAssignUser, domain.AssignProjectLead, fixedNow.Add(time.Minute))

	elsewhere := f.task.Clone()
	elsewhere.ProjectID = uuid.New()
	f.tasks.Put(elsewhere)

	out, err := f.run(t)

	assert.ErrorIs(t, err, ErrTaskNotInProject)
	assert.False(t, out.Changed)
	assert.Empty(t, out.Applied)
	assert.Zero(t, f.tasks.UpdateCalls)

	stored := f.tasks.Get(f.task.ID)
	assert.False(t, stored.Archived)
	assert.Nil(t, stored.AssigneeID)
}

func TestRun_MissingTask(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(domain.ActionArchiveTask, "", fixedNow)
	f.task = &domain.Task{ID: uuid.New(), ProjectID: f.project.ID}

	_, err := f.run(t)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "plus days", value: "+7", want: fixedNow.AddDate(0, 0, 7)},
		{name: "bare days", value: "2", want: fixedNow.AddDate(0, 0, 2)},
		{name: "zero days", value: "0", want: fixedNow},
		{name: "date", value: "2026-12-24", want: time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)},
		{
			name:  "rfc3339",
			value: "2026-12-24T15:00:00+02:00",
			want:  time.Date(2026, 12, 24, 13, 0, 0, 0, time.UTC),
		},
		{name: "negative", value: "-1", wantErr: true},
		{name: "empty", value: " ", wantErr: true},
		{name: "garbage", value: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDueDate(tt.value, fixedNow)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidActionValue)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}
