//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/postgres"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/testdb"
)

type fixture struct {
	user    uuid.UUID
	other   uuid.UUID
	project uuid.UUID
}

func seed(t *testing.T, tx *sql.Tx) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{user: uuid.New(), other: uuid.New(), project: uuid.New()}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, notification_preferences) VALUES
			($1, $2, 'Alice', '{"email_status_changes": true}'),
			($3, $4, 'Bob', '{}')`,
		f.user, f.user.String()+"@example.com", f.other, f.other.String()+"@example.com")
	require.NoError(t, err)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, organization_id, name, lead_id) VALUES ($1, $2, 'Ops', $3)`,
		f.project, uuid.New(), f.user)
	require.NoError(t, err)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`, f.project, f.other)
	require.NoError(t, err)
	return f
}

func newTask(f fixture) *domain.Task {
	due := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:         uuid.New(),
		ProjectID:  f.project,
		Title:      "Weekly report",
		Status:     domain.TaskStatusTodo,
		Priority:   domain.TaskPriorityMedium,
		ReporterID: f.user,
		Tags:       []string{"ops", "weekly"},
		DueDate:    &due,
		Recurrence: &domain.Recurrence{Enabled: true, Pattern: domain.RecurrenceWeekly, Interval: 1},
	}
}

func TestStoresIntegration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	testdb.SetupTestDatabaseSchema(t, db)
	ctx := context.Background()

	t.Run("task_roundtrip_and_version_check", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			f := seed(t, tx)
			tasks := postgres.NewPostgresTaskStore(tx, nil)

			task := newTask(f)
			require.NoError(t, tasks.Create(ctx, task))

			got, err := tasks.GetByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"ops", "weekly"}, got.Tags)
			assert.Equal(t, int64(1), got.Version)
			require.NotNil(t, got.Recurrence)
			assert.Equal(t, domain.RecurrenceWeekly, got.Recurrence.Pattern)

			stale := got.Clone()
			got.Status = domain.TaskStatusDone
			require.NoError(t, tasks.UpdateIfVersion(ctx, got))
			assert.Equal(t, int64(2), got.Version)

			stale.Archived = true
			assert.ErrorIs(t, tasks.UpdateIfVersion(ctx, stale), store.ErrConflict)
		})
	})

	t.Run("recurrence_claim", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			f := seed(t, tx)
			tasks := postgres.NewPostgresTaskStore(tx, nil)

			completed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			task := newTask(f)
			task.Status = domain.TaskStatusDone
			task.CompletedAt = &completed
			require.NoError(t, tasks.Create(ctx, task))

			candidates, err := tasks.ListRecurrenceCandidates(ctx, completed.Add(time.Minute), 0)
			require.NoError(t, err)
			ids := make([]uuid.UUID, 0, len(candidates))
			for _, c := range candidates {
				ids = append(ids, c.ID)
			}
			assert.Contains(t, ids, task.ID)

			at := completed.Add(time.Hour)
			ok, err := tasks.ClaimRecurrence(ctx, task.ID, nil, at)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = tasks.ClaimRecurrence(ctx, task.ID, nil, at.Add(time.Hour))
			require.NoError(t, err)
			assert.False(t, ok)
		})
	})

	t.Run("notifications_and_membership", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			f := seed(t, tx)
			notifications := postgres.NewPostgresNotificationStore(tx, nil)
			projects := postgres.NewPostgresProjectStore(tx, nil)
			users := postgres.NewPostgresUserStore(tx, nil)

			n, err := domain.NewNotification(f.other, f.user, domain.NotificationProjectInvite,
				domain.EntityRef{ID: f.project, Kind: domain.EntityProject}, "Alice invited you to Ops")
			require.NoError(t, err)
			require.NoError(t, notifications.Create(ctx, n))

			unread, err := notifications.ListByRecipient(ctx, f.other, 10, true)
			require.NoError(t, err)
			require.Len(t, unread, 1)

			require.NoError(t, notifications.MarkRead(ctx, f.other, n.ID))
			assert.ErrorIs(t, notifications.MarkRead(ctx, f.user, n.ID), store.ErrNotificationNotFound)

			lead, err := projects.IsMember(ctx, f.project, f.user)
			require.NoError(t, err)
			assert.True(t, lead)

			found, err := users.FindProjectMembersByNames(ctx, f.project, []string{"alice", "BOB"})
			require.NoError(t, err)
			require.Len(t, found, 2)

			outsider := uuid.New()
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, email, name) VALUES ($1, $2, 'Alice')`,
				outsider, outsider.String()+"@example.com")
			require.NoError(t, err)
			found, err = users.FindProjectMembersByNames(ctx, f.project, []string{"alice"})
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, f.user, found[0].ID)
			assert.True(t, found[0].Preferences.Allows(domain.CategoryStatusChange))
		})
	})
}
