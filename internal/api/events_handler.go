package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/api/shared"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/events"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
)

// EventPublisher queues a committed mutation for the side-effect pipeline.
type EventPublisher interface {
	Publish(event *events.MutationEvent) error
}

var _ EventPublisher = (*events.InMemoryEventEmitter)(nil)

// PublishEventRequest is the body of POST /api/events.
type PublishEventRequest struct {
	Type    events.EventType `json:"type"    validate:"required"`
	Payload json.RawMessage  `json:"payload" validate:"required"`
}

// PublishEventResponse acknowledges a queued event.
type PublishEventResponse struct {
	ID uuid.UUID `json:"id"`
}

// EventHandler accepts mutation events from the document store once they
// have committed. Side effects run asynchronously, so the response only
// acknowledges the enqueue.
type EventHandler struct {
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(publisher EventPublisher, logger *slog.Logger) *EventHandler {
	if publisher == nil {
		panic("publisher cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{
		publisher: publisher,
		logger:    logger.With("component", "event_handler"),
		now:       time.Now,
	}
}

// Publish handles POST /api/events.
func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req PublishEventRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}
	if !req.Type.Valid() {
		HandleAPIError(w, r, fmt.Errorf("%w: %q", events.ErrUnknownEventType, req.Type), "")
		return
	}

	actor, err := eventActor(req.Type, req.Payload)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid event payload", err)
		return
	}
	if actor != userID {
		HandleAPIError(w, r, ErrActorMismatch, "")
		return
	}

	event := &events.MutationEvent{
		ID:        uuid.New(),
		Type:      req.Type,
		Payload:   req.Payload,
		CreatedAt: h.now().UTC(),
	}
	if err := h.publisher.Publish(event); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("event accepted",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.Type)))
	shared.RespondWithJSON(w, r, http.StatusAccepted, PublishEventResponse{ID: event.ID})
}

// eventActor decodes the payload for its type and returns the user who made
// the change.
func eventActor(t events.EventType, payload json.RawMessage) (uuid.UUID, error) {
	switch t {
	case events.TypeTaskCreated:
		var p events.TaskCreatedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return uuid.Nil, err
		}
		return p.ActorID, nil
	case events.TypeTaskUpdated:
		var p events.TaskUpdatedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return uuid.Nil, err
		}
		return p.ActorID, nil
	case events.TypeCommentCreated:
		var p events.CommentCreatedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return uuid.Nil, err
		}
		return p.ActorID, nil
	case events.TypeMemberInvited:
		var p events.MemberInvitedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return uuid.Nil, err
		}
		return p.InviterID, nil
	}
	return uuid.Nil, fmt.Errorf("%w: %q", events.ErrUnknownEventType, t)
}
