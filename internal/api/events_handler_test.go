package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/api/shared"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/events"
)

// fakePublisher records published events.
type fakePublisher struct {
	PublishFn func(event *events.MutationEvent) error
	Published []*events.MutationEvent
}

func (f *fakePublisher) Publish(event *events.MutationEvent) error {
	if f.PublishFn != nil {
		if err := f.PublishFn(event); err != nil {
			return err
		}
	}
	f.Published = append(f.Published, event)
	return nil
}

func eventRequest(body string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req = req.WithContext(shared.WithUserID(req.Context(), userID))
	}
	return req
}

func TestEventHandler_Publish(t *testing.T) {
	actor := uuid.New()
	other := uuid.New()
	taskID := uuid.New()
	projectID := uuid.New()
	fixedTime := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

	taskCreated := `{"type":"task.created","payload":{"task":{"id":"` + taskID.String() +
		`","project_id":"` + projectID.String() + `","title":"Write report"},"actor_id":"` + actor.String() + `"}}`
	memberInvited := `{"type":"project.member_invited","payload":{"project":{"id":"` + projectID.String() +
		`","name":"Apollo"},"invitee_id":"` + other.String() + `","inviter_id":"` + actor.String() + `"}}`
	forged := `{"type":"task.created","payload":{"task":{"id":"` + taskID.String() +
		`"},"actor_id":"` + other.String() + `"}}`

	tests := []struct {
		name           string
		body           string
		caller         uuid.UUID
		publishErr     error
		expectedStatus int
		expectedType   events.EventType
	}{
		{
			name:           "task created accepted",
			body:           taskCreated,
			caller:         actor,
			expectedStatus: http.StatusAccepted,
			expectedType:   events.TypeTaskCreated,
		},
		{
			name:           "invite checked against inviter",
			body:           memberInvited,
			caller:         actor,
			expectedStatus: http.StatusAccepted,
			expectedType:   events.TypeMemberInvited,
		},
		{name: "forged actor", body: forged, caller: actor, expectedStatus: http.StatusForbidden},
		{
			name:           "unknown type",
			body:           `{"type":"task.deleted","payload":{}}`,
			caller:         actor,
			expectedStatus: http.StatusBadRequest,
		},
		{name: "missing type", body: `{"payload":{}}`, caller: actor, expectedStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"type":`, caller: actor, expectedStatus: http.StatusBadRequest},
		{
			name:           "unknown field",
			body:           `{"type":"task.created","payload":{},"extra":1}`,
			caller:         actor,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "payload of wrong shape",
			body:           `{"type":"task.created","payload":"nope"}`,
			caller:         actor,
			expectedStatus: http.StatusBadRequest,
		},
		{name: "unauthenticated", body: taskCreated, expectedStatus: http.StatusUnauthorized},
		{
			name:           "backlog full",
			body:           taskCreated,
			caller:         actor,
			publishErr:     events.ErrBacklogFull,
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			if tt.publishErr != nil {
				pub.PublishFn = func(*events.MutationEvent) error { return tt.publishErr }
			}
			h := NewEventHandler(pub, nil)
			h.now = func() time.Time { return fixedTime }

			rec := httptest.NewRecorder()
			h.Publish(rec, eventRequest(tt.body, tt.caller))

			require.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			if tt.expectedStatus != http.StatusAccepted {
				assert.Empty(t, pub.Published)
				return
			}

			require.Len(t, pub.Published, 1)
			ev := pub.Published[0]
			assert.Equal(t, tt.expectedType, ev.Type)
			assert.Equal(t, fixedTime, ev.CreatedAt)
			assert.NotEqual(t, uuid.Nil, ev.ID)

			var resp PublishEventResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, ev.ID, resp.ID)
		})
	}
}

func TestEventHandler_PayloadRoundTrip(t *testing.T) {
	actor := uuid.New()
	pub := &fakePublisher{}
	h := NewEventHandler(pub, nil)

	body := `{"type":"comment.created","payload":{"comment":{"body":"hi @alice"},"task":{"title":"T"},"actor_id":"` +
		actor.String() + `"}}`
	rec := httptest.NewRecorder()
	h.Publish(rec, eventRequest(body, actor))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var payload events.CommentCreatedPayload
	require.NoError(t, pub.Published[0].UnmarshalPayload(&payload))
	assert.Equal(t, "hi @alice", payload.Comment.Body)
	assert.Equal(t, actor, payload.ActorID)
}
