package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
)

// EventType names a mutation.
type EventType string

// Mutation event types.
const (
	TypeTaskCreated    EventType = "task.created"
	TypeTaskUpdated    EventType = "task.updated"
	TypeCommentCreated EventType = "comment.created"
	TypeMemberInvited  EventType = "project.member_invited"
)

// ErrUnknownEventType is returned for events whose type is not one of the
// mutation event types.
var ErrUnknownEventType = errors.New("unknown event type")

// Valid reports whether t is a known mutation event type.
func (t EventType) Valid() bool {
	switch t {
	case TypeTaskCreated, TypeTaskUpdated, TypeCommentCreated, TypeMemberInvited:
		return true
	}
	return false
}

// MutationEvent records a committed mutation.
type MutationEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what changed
	Type EventType `json:"type"`

	// Payload holds one of the *Payload structs below, serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// TaskCreatedPayload accompanies TypeTaskCreated.
type TaskCreatedPayload struct {
	Task    domain.Task `json:"task"`
	ActorID uuid.UUID   `json:"actor_id"`
}

// TaskUpdatedPayload accompanies TypeTaskUpdated.
type TaskUpdatedPayload struct {
	Before  domain.Task `json:"before"`
	After   domain.Task `json:"after"`
	ActorID uuid.UUID   `json:"actor_id"`
}

// CommentCreatedPayload accompanies TypeCommentCreated.
type CommentCreatedPayload struct {
	Comment domain.Comment `json:"comment"`
	Task    domain.Task    `json:"task"`
	ActorID uuid.UUID      `json:"actor_id"`
}

// MemberInvitedPayload accompanies TypeMemberInvited.
type MemberInvitedPayload struct {
	Project   domain.Project `json:"project"`
	InviteeID uuid.UUID      `json:"invitee_id"`
	InviterID uuid.UUID      `json:"inviter_id"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *MutationEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewMutationEvent creates a MutationEvent with the specified type and payload.
func NewMutationEvent(eventType EventType, payload interface{}) (*MutationEvent, error) {
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &MutationEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *MutationEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *MutationEvent) error
}
