package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
)

func TestNewMutationEvent(t *testing.T) {
	payload := TaskUpdatedPayload{
		Before:  domain.Task{ID: uuid.New(), Status: domain.TaskStatusTodo},
		After:   domain.Task{Status: domain.TaskStatusDone},
		ActorID: uuid.New(),
	}
	payload.After.ID = payload.Before.ID

	event, err := NewMutationEvent(TypeTaskUpdated, payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeTaskUpdated, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded TaskUpdatedPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload.ActorID, decoded.ActorID)
	assert.Equal(t, domain.TaskStatusDone, decoded.After.Status)
	assert.Equal(t, payload.Before.ID, decoded.After.ID)
}

func TestNewMutationEventRejectsUnknownType(t *testing.T) {
	_, err := NewMutationEvent("task.deleted", map[string]string{})
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestMutationEventJSONRoundTrip(t *testing.T) {
	event, err := NewMutationEvent(TypeMemberInvited, MemberInvitedPayload{
		Project:   domain.Project{ID: uuid.New(), Name: "Ops"},
		InviteeID: uuid.New(),
		InviterID: uuid.New(),
	})
	require.NoError(t, err)

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var back MutationEvent
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, event.Type, back.Type)

	var payload MemberInvitedPayload
	require.NoError(t, back.UnmarshalPayload(&payload))
	assert.Equal(t, "Ops", payload.Project.Name)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *MutationEvent
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
	// Handled is signalled after each event when non-nil
	Handled chan struct{}
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *MutationEvent) error {
	h.LastEvent = event
	h.HandledCount++
	if h.Handled != nil {
		h.Handled <- struct{}{}
	}
	return h.HandlerError
}

func TestEventHandler(t *testing.T) {
	handler := &MockEventHandler{}

	event, err := NewMutationEvent(TypeTaskCreated, TaskCreatedPayload{})
	require.NoError(t, err)

	err = handler.HandleEvent(context.Background(), event)
	assert.NoError(t, err)
	assert.Equal(t, 1, handler.HandledCount)

	expectedErr := errors.New("handler error")
	handler.HandlerError = expectedErr
	err = handler.HandleEvent(context.Background(), event)
	assert.Equal(t, expectedErr, err)
	assert.Equal(t, 2, handler.HandledCount)
}
