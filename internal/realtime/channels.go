package realtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Channel name prefixes.
const (
	userPrefix    = "user:"
	projectPrefix = "project:"
)

// Event names pushed over the transport.
const (
	EventNotificationNew = "notification:new"
	EventTaskUpdated     = "task:updated"
	EventTaskCreated     = "task:created"
)

// ErrInvalidChannel is returned for channel names that are not user or
// project channels.
var ErrInvalidChannel = errors.New("invalid channel")

// UserChannel returns the channel a user's own notifications are pushed to.
func UserChannel(id uuid.UUID) string {
	return userPrefix + id.String()
}

// ProjectChannel returns the channel for project-wide task events.
func ProjectChannel(id uuid.UUID) string {
	return projectPrefix + id.String()
}

// parseChannel splits a channel name into its kind prefix and ID.
func parseChannel(name string) (prefix string, id uuid.UUID, err error) {
	for _, p := range []string{userPrefix, projectPrefix} {
		if rest, ok := strings.CutPrefix(name, p); ok {
			id, err := uuid.Parse(rest)
			if err != nil {
				return "", uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidChannel, name)
			}
			return p, id, nil
		}
	}
	return "", uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidChannel, name)
}
