package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/mocks"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/notify/emailqueue"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/realtime"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	notifications *mocks.MockNotificationStore
	users         *mocks.MockUserStore
	emitter       *mocks.MockRealtimeEmitter
	mailer        *mocks.MockMailer
	dispatcher    *Dispatcher
}

func newFixture(t *testing.T, users ...*domain.User) *fixture {
	t.Helper()
	f := &fixture{
		notifications: mocks.NewMockNotificationStore(),
		users:         mocks.NewMockUserStore(users...),
		emitter:       &mocks.MockRealtimeEmitter{},
		mailer:        &mocks.MockMailer{},
	}
	d, err := NewDispatcher(
		f.notifications,
		NewPreferenceResolver(f.users, discardLogger()),
		f.emitter,
		f.mailer,
		"https://app.example.com/",
		discardLogger(),
	)
	require.NoError(t, err)
	f.dispatcher = d
	return f
}

func testUser(name string, prefs domain.NotificationPreferences) *domain.User {
	return &domain.User{
		ID:          uuid.New(),
		Email:       strings.ToLower(name) + "@example.com",
		Name:        name,
		Preferences: prefs,
	}
}

func statusNotice(recipient, sender uuid.UUID) Notice {
	taskID := uuid.New()
	return Notice{
		RecipientID: recipient,
		SenderID:    sender,
		Type:        domain.NotificationTaskStatusChange,
		Category:    domain.CategoryStatusChange,
		Entity:      domain.EntityRef{ID: taskID, Kind: domain.EntityTask},
		Message:     "Task moved to done",
		Title:       "Ship release",
	}
}

func TestDispatch_SelfNotificationIsNoOp(t *testing.T) {
	alice := testUser("Alice", domain.NotificationPreferences{})
	f := newFixture(t, alice)

	n := statusNotice(alice.ID, alice.ID)
	n.Type = domain.NotificationTaskAssigned
	n.Category = domain.CategoryAssignment

	got, err := f.dispatcher.Dispatch(context.Background(), n)

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, f.notifications.Count())
	assert.Empty(t, f.emitter.Emitted())
	assert.Empty(t, f.mailer.Sent())
}

func TestDispatch_StatusChangeEmailDefaultOff(t *testing.T) {
	bob := testUser("Bob", domain.NotificationPreferences{})
	actor := uuid.New()
	f := newFixture(t, bob)

	got, err := f.dispatcher.Dispatch(context.Background(), statusNotice(bob.ID, actor))

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Read)
	assert.Len(t, f.notifications.ForRecipient(bob.ID), 1)
	assert.Empty(t, f.mailer.Sent())

	events := f.emitter.Emitted()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.UserChannel(bob.ID), events[0].Channel)
	assert.Equal(t, realtime.EventNotificationNew, events[0].Event)
}

func TestDispatch_StatusChangeEmailExplicitlyOn(t *testing.T) {
	bob := testUser("Bob", domain.NotificationPreferences{EmailStatusChanges: domain.Bool(true)})
	f := newFixture(t, bob)

	_, err := f.dispatcher.Dispatch(context.Background(), statusNotice(bob.ID, uuid.New()))
	require.NoError(t, err)

	jobs := f.mailer.Sent()
	require.Len(t, jobs, 1)
	assert.Equal(t, "bob@example.com", jobs[0].To)
	assert.Equal(t, "Task status changed: Ship release", jobs[0].Subject)
	assert.Equal(t, string(domain.CategoryStatusChange), jobs[0].Category)
	assert.Contains(t, jobs[0].HTMLBody, "Hi Bob")
	assert.Contains(t, jobs[0].HTMLBody, "https://app.example.com/tasks/")
}

func TestDispatch_ExplicitOptOut(t *testing.T) {
	carol := testUser("Carol", domain.NotificationPreferences{EmailTaskAssigned: domain.Bool(false)})
	f := newFixture(t, carol)

	n := statusNotice(carol.ID, uuid.New())
	n.Type = domain.NotificationTaskAssigned
	n.Category = domain.CategoryAssignment

	got, err := f.dispatcher.Dispatch(context.Background(), n)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, f.mailer.Sent())
}

func TestDispatch_EscapesEmailContent(t *testing.T) {
	dave := testUser("Dave", domain.NotificationPreferences{})
	f := newFixture(t, dave)

	n := Notice{
		RecipientID: dave.ID,
		SenderID:    uuid.New(),
		Type:        domain.NotificationNewComment,
		Category:    domain.CategoryComment,
		Entity:      domain.EntityRef{ID: uuid.New(), Kind: domain.EntityComment},
		Message:     "New comment",
		Excerpt:     "<script>alert(1)</script>",
		LinkPath:    "/tasks/123",
	}
	_, err := f.dispatcher.Dispatch(context.Background(), n)
	require.NoError(t, err)

	jobs := f.mailer.Sent()
	require.Len(t, jobs, 1)
	assert.NotContains(t, jobs[0].HTMLBody, "<script>")
	assert.Contains(t, jobs[0].HTMLBody, "&lt;script&gt;")
	assert.Contains(t, jobs[0].HTMLBody, "https://app.example.com/tasks/123")
}

func TestDispatch_PersistFailureIsReturned(t *testing.T) {
	erin := testUser("Erin", domain.NotificationPreferences{})
	f := newFixture(t, erin)
	dbErr := errors.New("connection refused")
	f.notifications.CreateError = dbErr

	got, err := f.dispatcher.Dispatch(context.Background(), statusNotice(erin.ID, uuid.New()))

	assert.Nil(t, got)
	assert.ErrorIs(t, err, dbErr)
	var svcErr *ServiceError
	assert.ErrorAs(t, err, &svcErr)
	assert.Empty(t, f.emitter.Emitted())
	assert.Empty(t, f.mailer.Sent())
}

func TestDispatch_PushAndEmailFailuresKeepRecord(t *testing.T) {
	frank := testUser("Frank", domain.NotificationPreferences{})
	f := newFixture(t, frank)
	f.emitter.EmitFn = func(context.Context, string, string, any) error { return realtime.ErrHubClosed }
	f.mailer.EnqueueFn = func(emailqueue.Job) error { return emailqueue.ErrQueueClosed }

	n := statusNotice(frank.ID, uuid.New())
	n.Type = domain.NotificationTaskAssigned
	n.Category = domain.CategoryAssignment

	got, err := f.dispatcher.Dispatch(context.Background(), n)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, f.notifications.ForRecipient(frank.ID), 1)
}

func TestDispatch_InvalidNotice(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatcher.Dispatch(context.Background(), Notice{
		RecipientID: uuid.New(),
		SenderID:    uuid.New(),
		Type:        "bogus",
		Entity:      domain.EntityRef{ID: uuid.New(), Kind: domain.EntityTask},
	})
	assert.ErrorIs(t, err, ErrInvalidNotice)
	assert.ErrorIs(t, err, domain.ErrInvalidNotificationType)
}

func TestDispatch_SystemSender(t *testing.T) {
	gina := testUser("Gina", domain.NotificationPreferences{})
	f := newFixture(t, gina)

	n := statusNotice(gina.ID, uuid.Nil)
	n.Type = domain.NotificationTaskAssigned
	n.Category = domain.CategoryAssignment

	got, err := f.dispatcher.Dispatch(context.Background(), n)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uuid.Nil, got.SenderID)
	assert.Len(t, f.mailer.Sent(), 1)
}

func TestPreferenceResolver(t *testing.T) {
	withDefaults := testUser("Hank", domain.NotificationPreferences{})
	custom := testUser("Ivy", domain.NotificationPreferences{
		EmailComments:      domain.Bool(false),
		EmailStatusChanges: domain.Bool(true),
	})
	users := mocks.NewMockUserStore(withDefaults, custom)
	resolver := NewPreferenceResolver(users, discardLogger())
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   uuid.UUID
		category domain.PreferenceCategory
		want     bool
	}{
		{"assignment default on", withDefaults.ID, domain.CategoryAssignment, true},
		{"status change default off", withDefaults.ID, domain.CategoryStatusChange, false},
		{"comment default on", withDefaults.ID, domain.CategoryComment, true},
		{"mention default on", withDefaults.ID, domain.CategoryMention, true},
		{"due date default on", withDefaults.ID, domain.CategoryDueDate, true},
		{"invite default on", withDefaults.ID, domain.CategoryProjectInvite, true},
		{"comment opted out", custom.ID, domain.CategoryComment, false},
		{"status change opted in", custom.ID, domain.CategoryStatusChange, true},
		{"mention unaffected by comment opt out", custom.ID, domain.CategoryMention, true},
		{"unknown category", withDefaults.ID, "digest", false},
		{"missing user", uuid.New(), domain.CategoryAssignment, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.Allows(ctx, tt.userID, tt.category))
		})
	}
}

func TestPreferenceResolver_StoreErrorDenies(t *testing.T) {
	users := mocks.NewMockUserStore()
	users.GetByIDFn = func(context.Context, uuid.UUID) (*domain.User, error) {
		return nil, store.ErrTransactionFailed
	}
	resolver := NewPreferenceResolver(users, discardLogger())

	d := resolver.Resolve(context.Background(), uuid.New(), domain.CategoryAssignment)
	assert.False(t, d.Allowed)
	assert.Empty(t, d.Email)
}

func TestInbox(t *testing.T) {
	jane := testUser("Jane", domain.NotificationPreferences{})
	f := newFixture(t, jane)
	ctx := context.Background()

	first, err := f.dispatcher.Dispatch(ctx, statusNotice(jane.ID, uuid.New()))
	require.NoError(t, err)
	_, err = f.dispatcher.Dispatch(ctx, statusNotice(jane.ID, uuid.New()))
	require.NoError(t, err)

	all, err := f.dispatcher.ListForUser(ctx, jane.ID, 0, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, f.dispatcher.MarkRead(ctx, jane.ID, first.ID))
	unread, err := f.dispatcher.ListForUser(ctx, jane.ID, 10, true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	changed, err := f.dispatcher.MarkAllRead(ctx, jane.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	err = f.dispatcher.MarkRead(ctx, uuid.New(), first.ID)
	assert.ErrorIs(t, err, store.ErrNotificationNotFound)

	empty, err := f.dispatcher.ListForUser(ctx, uuid.New(), 10, false)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "You were mentioned in a comment", subjectFor(domain.CategoryMention, ""))
	assert.Equal(t, "You were invited to a project: Apollo", subjectFor(domain.CategoryProjectInvite, "Apollo"))
	assert.Equal(t, "TaskKollecta notification", subjectFor("other", ""))
}
