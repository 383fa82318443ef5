package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
)

// ErrBacklogFull is returned by Publish when the async backlog cannot take
// another event.
var ErrBacklogFull = errors.New("event backlog full")

// DefaultBacklog is the async buffer size used when none is given.
const DefaultBacklog = 1024

type registration struct {
	handler EventHandler
	types   map[EventType]bool
}

func (r registration) accepts(t EventType) bool {
	return len(r.types) == 0 || r.types[t]
}

// InMemoryEventEmitter dispatches events to handlers registered in memory.
// EmitEvent runs handlers synchronously. Publish queues the event for the
// Serve loop, which lets callers acknowledge a mutation before its side
// effects run.
type InMemoryEventEmitter struct {
	handlers []registration
	mu       sync.RWMutex
	logger   *slog.Logger
	backlog  chan *MutationEvent
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
// backlog bounds the number of published events waiting for Serve; values
// below 1 use DefaultBacklog.
func NewInMemoryEventEmitter(logger *slog.Logger, backlog int) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	if backlog < 1 {
		backlog = DefaultBacklog
	}
	return &InMemoryEventEmitter{
		logger:  logger.With("component", "in_memory_event_emitter"),
		backlog: make(chan *MutationEvent, backlog),
	}
}

// RegisterHandler adds a handler for the given event types, or for every
// type when none are listed.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler, types ...EventType) {
	reg := registration{handler: handler}
	if len(types) > 0 {
		reg.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			reg.types[t] = true
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, reg)
	e.logger.Debug("registered new event handler", "handler_count", len(e.handlers))
}

// EmitEvent publishes the given event to all matching handlers.
// If any handler returns an error, the event will still be sent to all other handlers,
// and the first error encountered will be returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *MutationEvent) error {
	log := logger.FromContextOrDefault(ctx, e.logger)

	e.mu.RLock()
	handlers := make([]EventHandler, 0, len(e.handlers))
	for _, reg := range e.handlers {
		if reg.accepts(event.Type) {
			handlers = append(handlers, reg.handler)
		}
	}
	e.mu.RUnlock()

	log.Debug("emitting event",
		"event_id", event.ID,
		"event_type", string(event.Type),
		"handler_count", len(handlers))

	if len(handlers) == 0 {
		log.Warn("no handlers registered for event",
			"event_id", event.ID,
			"event_type", string(event.Type))
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			log.Error("handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"event_type", string(event.Type))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Publish queues the event for asynchronous delivery. It never blocks.
func (e *InMemoryEventEmitter) Publish(event *MutationEvent) error {
	select {
	case e.backlog <- event:
		return nil
	default:
		e.logger.Error("dropping event, backlog full",
			"event_id", event.ID,
			"event_type", string(event.Type))
		return ErrBacklogFull
	}
}

// Serve delivers published events until ctx is cancelled. Handler errors
// are logged by EmitEvent and do not stop the loop.
func (e *InMemoryEventEmitter) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-e.backlog:
			_ = e.EmitEvent(ctx, event)
		}
	}
}

// String names the service in supervisor logs.
func (e *InMemoryEventEmitter) String() string {
	return "event-emitter"
}

// Pending returns the number of published events not yet delivered.
func (e *InMemoryEventEmitter) Pending() int {
	return len(e.backlog)
}
