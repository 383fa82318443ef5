package pipeline

import (
	"errors"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/automation"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/events"
)

// Effect collects what a mutation caused. Failures are kept for logging and
// metrics only.
type Effect struct {
	Event         events.EventType
	Notifications []*domain.Notification
	Automation    []automation.Outcome
	failures      []error
}

func (e *Effect) notified(n *domain.Notification) {
	if n != nil {
		e.Notifications = append(e.Notifications, n)
	}
}

func (e *Effect) fail(err error) {
	if err != nil {
		e.failures = append(e.failures, err)
	}
}

// Err joins every failure, or returns nil when all effects succeeded.
func (e Effect) Err() error {
	return errors.Join(e.failures...)
}

// Failed reports whether any side effect failed.
func (e Effect) Failed() bool {
	return len(e.failures) > 0
}
