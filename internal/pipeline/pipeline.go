package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/automation"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/events"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/metrics"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/notify"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/realtime"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// Notifier delivers a single notice.
type Notifier interface {
	Dispatch(ctx context.Context, n notify.Notice) (*domain.Notification, error)
}

// RuleRunner executes automation rules for one trigger.
type RuleRunner interface {
	Run(
		ctx context.Context,
		projectID uuid.UUID,
		trigger domain.TriggerType,
		value string,
		task *domain.Task,
	) (automation.Outcome, error)
}

// Pipeline routes mutations to the dispatcher and the rule engine.
type Pipeline struct {
	notifier Notifier
	rules    RuleRunner
	users    store.UserStore
	emitter  realtime.Emitter
	logger   *slog.Logger
}

var _ events.EventHandler = (*Pipeline)(nil)

// New creates a Pipeline. rules and emitter may be nil.
func New(
	notifier Notifier,
	rules RuleRunner,
	users store.UserStore,
	emitter realtime.Emitter,
	logger *slog.Logger,
) *Pipeline {
	if notifier == nil || users == nil {
		panic("pipeline requires a notifier and a user store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		notifier: notifier,
		rules:    rules,
		users:    users,
		emitter:  emitter,
		logger:   logger.With("component", "pipeline"),
	}
}

// TaskCreated notifies the initial assignee.
func (p *Pipeline) TaskCreated(ctx context.Context, task *domain.Task, actorID uuid.UUID) Effect {
	effect := Effect{Event: events.TypeTaskCreated}
	if task.AssigneeID != nil {
		p.notifyAssigned(ctx, &effect, task, actorID, fmt.Sprintf("You were assigned to %q", task.Title))
	}
	return effect
}

// TaskUpdated notifies about assignee and status changes and runs the rules
// bound to a changed status or priority.
func (p *Pipeline) TaskUpdated(ctx context.Context, before, after *domain.Task, actorID uuid.UUID) Effect {
	effect := Effect{Event: events.TypeTaskUpdated}

	if domain.AssigneeChanged(before, after) && after.AssigneeID != nil {
		p.notifyAssigned(ctx, &effect, after, actorID, fmt.Sprintf("You were assigned to %q", after.Title))
	}

	statusChanged := before.Status != after.Status
	if statusChanged {
		msg := fmt.Sprintf("%q moved from %s to %s", after.Title, before.Status, after.Status)
		for _, recipient := range statusRecipients(after) {
			n, err := p.notifier.Dispatch(ctx, notify.Notice{
				RecipientID: recipient,
				SenderID:    actorID,
				Type:        domain.NotificationTaskStatusChange,
				Category:    domain.CategoryStatusChange,
				Entity:      domain.EntityRef{ID: after.ID, Kind: domain.EntityTask},
				Message:     msg,
				Title:       after.Title,
			})
			effect.notified(n)
			effect.fail(err)
		}
	}

	if p.rules == nil {
		return effect
	}
	if statusChanged {
		p.runRules(ctx, &effect, after, domain.TriggerStatusChange, string(after.Status))
	}
	if before.Priority != after.Priority {
		p.runRules(ctx, &effect, after, domain.TriggerPriorityChange, string(after.Priority))
	}
	return effect
}

// CommentCreated notifies mentioned project members through the mention
// preference and the task's assignee and reporter through the comment
// preference. No one is notified twice for the same comment.
func (p *Pipeline) CommentCreated(
	ctx context.Context,
	comment *domain.Comment,
	task *domain.Task,
	actorID uuid.UUID,
) Effect {
	effect := Effect{Event: events.TypeCommentCreated}
	log := logger.FromContextOrDefault(ctx, p.logger)

	actor := p.actorName(ctx, actorID)
	excerpt := Truncate(comment.Body, ExcerptLength)
	seen := map[uuid.UUID]bool{actorID: true}

	send := func(recipient uuid.UUID, category domain.PreferenceCategory, msg string) {
		if seen[recipient] {
			return
		}
		seen[recipient] = true
		n, err := p.notifier.Dispatch(ctx, notify.Notice{
			RecipientID: recipient,
			SenderID:    actorID,
			Type:        domain.NotificationNewComment,
			Category:    category,
			Entity:      domain.EntityRef{ID: comment.ID, Kind: domain.EntityComment},
			Message:     msg,
			Title:       task.Title,
			Excerpt:     excerpt,
			LinkPath:    "/tasks/" + task.ID.String(),
		})
		effect.notified(n)
		effect.fail(err)
	}

	if names := ExtractMentions(comment.Body); len(names) > 0 {
		mentioned, err := p.users.FindProjectMembersByNames(ctx, task.ProjectID, names)
		if err != nil {
			log.Warn("failed to resolve mentions", "comment_id", comment.ID, "error", err)
			effect.fail(fmt.Errorf("resolve mentions: %w", err))
		}
		for _, u := range mentioned {
			send(u.ID, domain.CategoryMention, fmt.Sprintf("%s mentioned you on %q", actor, task.Title))
		}
	}

	msg := fmt.Sprintf("%s commented on %q", actor, task.Title)
	if task.AssigneeID != nil {
		send(*task.AssigneeID, domain.CategoryComment, msg)
	}
	if task.ReporterID != uuid.Nil {
		send(task.ReporterID, domain.CategoryComment, msg)
	}
	return effect
}

// MemberInvited notifies the invitee.
func (p *Pipeline) MemberInvited(ctx context.Context, project *domain.Project, inviteeID, inviterID uuid.UUID) Effect {
	effect := Effect{Event: events.TypeMemberInvited}
	n, err := p.notifier.Dispatch(ctx, notify.Notice{
		RecipientID: inviteeID,
		SenderID:    inviterID,
		Type:        domain.NotificationProjectInvite,
		Category:    domain.CategoryProjectInvite,
		Entity:      domain.EntityRef{ID: project.ID, Kind: domain.EntityProject},
		Message:     fmt.Sprintf("%s invited you to %q", p.actorName(ctx, inviterID), project.Name),
		Title:       project.Name,
	})
	effect.notified(n)
	effect.fail(err)
	return effect
}

// HandleEvent implements events.EventHandler. Side-effect failures are
// logged and counted here and are not returned; only an event that cannot
// be decoded is an error.
func (p *Pipeline) HandleEvent(ctx context.Context, event *events.MutationEvent) error {
	log := logger.FromContextOrDefault(ctx, p.logger).With(
		"event_id", event.ID,
		"event_type", string(event.Type))
	ctx = logger.WithLogger(ctx, log)
	metrics.EventsReceived.WithLabelValues(string(event.Type)).Inc()

	var effect Effect
	switch event.Type {
	case events.TypeTaskCreated:
		var payload events.TaskCreatedPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		effect = p.TaskCreated(ctx, &payload.Task, payload.ActorID)

	case events.TypeTaskUpdated:
		var payload events.TaskUpdatedPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		effect = p.TaskUpdated(ctx, &payload.Before, &payload.After, payload.ActorID)

	case events.TypeCommentCreated:
		var payload events.CommentCreatedPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		effect = p.CommentCreated(ctx, &payload.Comment, &payload.Task, payload.ActorID)

	case events.TypeMemberInvited:
		var payload events.MemberInvitedPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		effect = p.MemberInvited(ctx, &payload.Project, payload.InviteeID, payload.InviterID)

	default:
		return fmt.Errorf("%w: %q", events.ErrUnknownEventType, event.Type)
	}

	if effect.Failed() {
		metrics.EffectFailures.WithLabelValues(string(event.Type)).Inc()
		log.Error("side effects failed", "error", effect.Err())
		return nil
	}
	log.Debug("side effects completed", "notifications", len(effect.Notifications))
	return nil
}

func (p *Pipeline) notifyAssigned(ctx context.Context, effect *Effect, task *domain.Task, senderID uuid.UUID, msg string) {
	n, err := p.notifier.Dispatch(ctx, notify.Notice{
		RecipientID: *task.AssigneeID,
		SenderID:    senderID,
		Type:        domain.NotificationTaskAssigned,
		Category:    domain.CategoryAssignment,
		Entity:      domain.EntityRef{ID: task.ID, Kind: domain.EntityTask},
		Message:     msg,
		Title:       task.Title,
	})
	effect.notified(n)
	effect.fail(err)
}

// runRules executes the rules for one trigger. A rule-driven assignment is
// announced with the system as sender, and any change is pushed to the
// project channel.
func (p *Pipeline) runRules(
	ctx context.Context,
	effect *Effect,
	task *domain.Task,
	trigger domain.TriggerType,
	value string,
) {
	outcome, err := p.rules.Run(ctx, task.ProjectID, trigger, value, task)
	if err != nil {
		effect.fail(fmt.Errorf("automation %s=%s: %w", trigger, value, err))
		return
	}
	effect.Automation = append(effect.Automation, outcome)
	if !outcome.Changed {
		return
	}

	if outcome.AssigneeChanged && outcome.Task.AssigneeID != nil {
		p.notifyAssigned(ctx, effect, outcome.Task, uuid.Nil,
			fmt.Sprintf("You were assigned to %q by an automation rule", outcome.Task.Title))
	}

	if p.emitter != nil {
		err := p.emitter.Emit(ctx, realtime.ProjectChannel(outcome.Task.ProjectID), realtime.EventTaskUpdated, outcome.Task)
		if err != nil {
			logger.FromContextOrDefault(ctx, p.logger).Warn("failed to push automated task update",
				"task_id", outcome.Task.ID,
				"error", err)
		}
	}
}

// statusRecipients returns the assignee and the reporter, once each.
func statusRecipients(task *domain.Task) []uuid.UUID {
	var out []uuid.UUID
	if task.AssigneeID != nil {
		out = append(out, *task.AssigneeID)
	}
	if task.ReporterID != uuid.Nil && (task.AssigneeID == nil || *task.AssigneeID != task.ReporterID) {
		out = append(out, task.ReporterID)
	}
	return out
}

func (p *Pipeline) actorName(ctx context.Context, id uuid.UUID) string {
	if id == uuid.Nil {
		return "TaskKollecta"
	}
	u, err := p.users.GetByID(ctx, id)
	if err != nil || u.Name == "" {
		return "Someone"
	}
	return u.Name
}
