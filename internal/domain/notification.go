package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationType is the kind of in-app notification shown to a user.
type NotificationType string

// Notification types.
const (
	NotificationTaskAssigned     NotificationType = "task_assigned"
	NotificationTaskStatusChange NotificationType = "task_status_change"
	NotificationNewComment       NotificationType = "new_comment"
	NotificationProjectInvite    NotificationType = "project_invite"
)

// EntityKind identifies what a notification points at.
type EntityKind string

// Entity kinds.
const (
	EntityTask    EntityKind = "task"
	EntityComment EntityKind = "comment"
	EntityProject EntityKind = "project"
)

// EntityRef is a typed pointer to a domain entity.
type EntityRef struct {
	ID   uuid.UUID  `json:"id"`
	Kind EntityKind `json:"kind"`
}

// Notification validation errors
var (
	ErrEmptyRecipient          = errors.New("notification recipient cannot be empty")
	ErrSelfNotification        = errors.New("notification recipient cannot be the sender")
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrInvalidEntityKind       = errors.New("invalid entity kind")
)

// Notification is a persisted in-app message for one recipient. Only Read
// ever changes after creation. SenderID is uuid.Nil for notifications
// raised by the system itself (automation rules).
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	SenderID    uuid.UUID        `json:"sender_id"`
	Type        NotificationType `json:"type"`
	Entity      EntityRef        `json:"entity"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewNotification builds and validates an unread notification.
func NewNotification(
	recipientID, senderID uuid.UUID,
	typ NotificationType,
	entity EntityRef,
	message string,
) (*Notification, error) {
	n := &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        typ,
		Entity:      entity,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.RecipientID == uuid.Nil {
		return ErrEmptyRecipient
	}
	if n.RecipientID == n.SenderID {
		return ErrSelfNotification
	}
	switch n.Type {
	case NotificationTaskAssigned, NotificationTaskStatusChange,
		NotificationNewComment, NotificationProjectInvite:
	default:
		return ErrInvalidNotificationType
	}
	switch n.Entity.Kind {
	case EntityTask, EntityComment, EntityProject:
	default:
		return ErrInvalidEntityKind
	}
	return nil
}
