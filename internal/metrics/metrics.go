package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskkollecta"

// Result label values shared by several counters.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
	ResultDropped = "dropped"
)

var (
	// Event intake
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Mutation events accepted by the pipeline",
		},
		[]string{"type"},
	)

	EffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "effect_failures_total",
			Help:      "Background side effects that failed, by event type",
		},
		[]string{"type"},
	)

	// Notifications
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "notifications_created_total",
			Help:      "In-app notifications persisted",
		},
		[]string{"type"},
	)

	NotificationsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "notifications_skipped_total",
			Help:      "Dispatches that produced no notification",
		},
		[]string{"reason"},
	)

	// Real-time transport
	RealtimePushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "pushes_total",
			Help:      "Real-time events emitted, by outcome",
		},
		[]string{"result"},
	)

	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Currently connected WebSocket clients",
		},
	)

	// Email queue
	EmailJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "jobs_total",
			Help:      "Email jobs by lifecycle event (enqueued, sent, retried, dropped, rejected)",
		},
		[]string{"event"},
	)

	EmailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "queue_depth",
			Help:      "Jobs waiting in the email queue",
		},
	)

	EmailSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "send_duration_seconds",
			Help:      "Duration of a single transport send attempt",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Automation
	RuleActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "automation",
			Name:      "rule_actions_total",
			Help:      "Automation rule actions by type and result",
		},
		[]string{"action", "result"},
	)

	RuleWriteConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "automation",
			Name:      "write_conflicts_total",
			Help:      "Optimistic concurrency conflicts while persisting rule results",
		},
	)

	// Recurrence
	RecurrenceChildren = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recurrence",
			Name:      "children_created_total",
			Help:      "Recurring task instances generated",
		},
	)

	RecurrenceCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recurrence",
			Name:      "candidates_total",
			Help:      "Recurring tasks examined, by outcome",
		},
		[]string{"result"},
	)

	RecurrenceRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recurrence",
			Name:      "run_duration_seconds",
			Help:      "Duration of a recurrence pass",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordEmailSend observes one transport attempt.
func RecordEmailSend(duration time.Duration, err error) {
	EmailSendDuration.Observe(duration.Seconds())
	if err != nil {
		EmailJobs.WithLabelValues("failed").Inc()
	}
}

// RecordRuleAction counts one rule action outcome.
func RecordRuleAction(action, result string) {
	RuleActions.WithLabelValues(action, result).Inc()
}

// RecordRealtimePush counts one real-time emit outcome.
func RecordRealtimePush(err error) {
	if err != nil {
		RealtimePushes.WithLabelValues(ResultError).Inc()
		return
	}
	RealtimePushes.WithLabelValues(ResultOK).Inc()
}
