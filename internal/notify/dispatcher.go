package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/metrics"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/notify/emailqueue"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/realtime"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/redact"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// Mailer accepts rendered emails for background delivery.
type Mailer interface {
	Enqueue(job emailqueue.Job) error
}

// Notice describes one notification to deliver. Category selects the
// email preference and template, which may be narrower than Type (a mention
// is a new_comment notification routed by the mention preference).
type Notice struct {
	RecipientID uuid.UUID
	SenderID    uuid.UUID
	Type        domain.NotificationType
	Category    domain.PreferenceCategory
	Entity      domain.EntityRef
	Message     string

	// Email-only content.
	Subject  string
	Title    string
	Excerpt  string
	LinkPath string
}

// Dispatcher fans a notice out to the in-app inbox, the real-time
// transport and email.
type Dispatcher struct {
	notifications store.NotificationStore
	prefs         *PreferenceResolver
	realtime      realtime.Emitter
	mailer        Mailer
	templates     *emailTemplates
	appURL        string
	logger        *slog.Logger
}

// NewDispatcher creates a Dispatcher. realtime and mailer may be nil, in
// which case that channel is skipped.
func NewDispatcher(
	notifications store.NotificationStore,
	prefs *PreferenceResolver,
	rt realtime.Emitter,
	mailer Mailer,
	appURL string,
	logger *slog.Logger,
) (*Dispatcher, error) {
	if notifications == nil {
		return nil, errors.New("notifications store cannot be nil")
	}
	if prefs == nil {
		return nil, errors.New("preference resolver cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	templates, err := newEmailTemplates()
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		notifications: notifications,
		prefs:         prefs,
		realtime:      rt,
		mailer:        mailer,
		templates:     templates,
		appURL:        strings.TrimRight(appURL, "/"),
		logger:        logger.With("component", "notification_dispatcher"),
	}, nil
}

// Dispatch delivers n. A notice addressed to its own sender is a no-op and
// returns (nil, nil). Otherwise the notification is persisted first; only a
// persistence failure is returned. The push and the email happen after the
// record exists and their failures are logged.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notice) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, d.logger).With(
		"recipient_id", n.RecipientID,
		"type", n.Type)

	if n.RecipientID == n.SenderID {
		metrics.NotificationsSkipped.WithLabelValues("self").Inc()
		log.Debug("skipping self notification")
		return nil, nil
	}

	notification, err := domain.NewNotification(n.RecipientID, n.SenderID, n.Type, n.Entity, n.Message)
	if err != nil {
		metrics.NotificationsSkipped.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidNotice, err)
	}

	if err := d.notifications.Create(ctx, notification); err != nil {
		log.Error("failed to persist notification", "error", err)
		return nil, NewServiceError("dispatch", "failed to persist notification", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	log.Debug("notification created", "notification_id", notification.ID)

	d.push(ctx, log, notification)
	d.email(ctx, log, n)

	return notification, nil
}

func (d *Dispatcher) push(ctx context.Context, log *slog.Logger, n *domain.Notification) {
	if d.realtime == nil {
		return
	}
	err := d.realtime.Emit(ctx, realtime.UserChannel(n.RecipientID), realtime.EventNotificationNew, n)
	if err != nil {
		log.Warn("failed to push notification", "notification_id", n.ID, "error", err)
	}
}

func (d *Dispatcher) email(ctx context.Context, log *slog.Logger, n Notice) {
	if d.mailer == nil {
		return
	}

	decision := d.prefs.Resolve(ctx, n.RecipientID, n.Category)
	if !decision.Allowed {
		log.Debug("email suppressed by preferences", "category", n.Category)
		return
	}

	body, err := d.templates.render(n.Category, EmailData{
		RecipientName: decision.Name,
		Message:       n.Message,
		Title:         n.Title,
		Excerpt:       n.Excerpt,
		Link:          d.link(n),
	})
	if err != nil {
		log.Error("failed to render notification email", "category", n.Category, "error", err)
		return
	}

	subject := n.Subject
	if subject == "" {
		subject = subjectFor(n.Category, n.Title)
	}

	err = d.mailer.Enqueue(emailqueue.Job{
		Message: emailqueue.Message{
			To:       decision.Email,
			Subject:  subject,
			HTMLBody: body,
		},
		Category: string(n.Category),
	})
	if err != nil {
		log.Warn("failed to enqueue notification email",
			"to", redact.Email(decision.Email),
			"error", err)
	}
}

// link builds the absolute URL shown in the email.
func (d *Dispatcher) link(n Notice) string {
	if d.appURL == "" {
		return ""
	}
	path := n.LinkPath
	if path == "" {
		switch n.Entity.Kind {
		case domain.EntityTask:
			path = "/tasks/" + n.Entity.ID.String()
		case domain.EntityProject:
			path = "/projects/" + n.Entity.ID.String()
		default:
			return d.appURL
		}
	}
	return d.appURL + path
}
