// Package emailqueue delivers notification emails in the background.
//
// Jobs are held in memory and drained by a single loop. A failed send is
// rescheduled with exponential backoff through a timer and re-enters the back
// of the queue, so the loop never sleeps. A job is attempted at most
// MaxRetries times and then dropped. Pending jobs do not survive a restart.
package emailqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/metrics"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/redact"
)

// Defaults applied by New when Config leaves a field zero.
const (
	DefaultMaxRetries   = 3
	DefaultBaseDelay    = time.Second
	DefaultSendTimeout  = 30 * time.Second
	DefaultDrainTimeout = 30 * time.Second

	DefaultUnavailableDelay = 30 * time.Second
)

var (
	// ErrQueueClosed is returned by Enqueue once Stop has been called.
	ErrQueueClosed = errors.New("email queue is closed")

	// ErrInvalidJob is returned by Enqueue for a job without a recipient.
	ErrInvalidJob = errors.New("invalid email job")

	// ErrUnavailable marks a send the transport refused without reaching
	// the provider, such as while a circuit breaker is open. It does not
	// count as a delivery attempt.
	ErrUnavailable = errors.New("email transport unavailable")
)

// Message is a rendered email ready for the transport.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Job is a queued email. Retries counts failed attempts so far.
type Job struct {
	Message
	Category   string
	Retries    int
	MaxRetries int

	seq uint64
}

// Transport sends a single message. Every error is treated as retryable;
// errors wrapping ErrUnavailable are deferred without using a retry.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Config tunes retry behaviour.
type Config struct {
	MaxRetries  int
	BaseDelay   time.Duration
	SendTimeout time.Duration

	// DrainTimeout bounds how long Serve waits for pending jobs on shutdown.
	DrainTimeout time.Duration

	// UnavailableDelay is the wait before retrying a job the transport
	// refused with ErrUnavailable.
	UnavailableDelay time.Duration
}

// Queue is the in-memory email delivery queue.
type Queue struct {
	transport Transport
	cfg       Config
	logger    *slog.Logger

	mu         sync.Mutex
	jobs       []*Job
	timers     map[uint64]*time.Timer
	processing bool
	started    bool
	closed     bool
	aborted    bool
	seq        uint64

	// wg tracks the drain loop and every armed retry timer.
	wg sync.WaitGroup

	sendCtx    context.Context
	cancelSend context.CancelFunc
}

// New creates a stopped queue. Call Start before jobs are delivered; jobs
// enqueued earlier wait until then.
func New(transport Transport, cfg Config, logger *slog.Logger) *Queue {
	if transport == nil {
		panic("transport cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	if cfg.UnavailableDelay <= 0 {
		cfg.UnavailableDelay = DefaultUnavailableDelay
	}

	return &Queue{
		transport: transport,
		cfg:       cfg,
		logger:    logger.With("component", "email_queue"),
		timers:    make(map[uint64]*time.Timer),
	}
}

// Start begins draining. Sends run under a context detached from ctx's
// cancellation but carrying its values; Stop is what ends delivery.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.sendCtx, q.cancelSend = context.WithCancel(context.WithoutCancel(ctx))
	q.started = true
	q.kickLocked()
	q.logger.Info("email queue started",
		"max_retries", q.cfg.MaxRetries,
		"base_delay", q.cfg.BaseDelay)
}

// Enqueue adds job at the back of the queue and wakes the drain loop. It is
// safe for concurrent callers and never blocks on delivery.
func (q *Queue) Enqueue(job Job) error {
	if strings.TrimSpace(job.To) == "" {
		return fmt.Errorf("%w: empty recipient", ErrInvalidJob)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		metrics.EmailJobs.WithLabelValues("rejected").Inc()
		return ErrQueueClosed
	}

	q.seq++
	j := job
	j.seq = q.seq
	j.Retries = 0
	j.MaxRetries = q.cfg.MaxRetries
	q.jobs = append(q.jobs, &j)

	metrics.EmailJobs.WithLabelValues("enqueued").Inc()
	metrics.EmailQueueDepth.Set(float64(len(q.jobs)))
	q.logger.Debug("email job enqueued",
		"job", j.seq,
		"to", redact.Email(j.To),
		"category", j.Category)

	q.kickLocked()
	return nil
}

// Pending reports jobs waiting in the queue plus jobs waiting for a retry.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs) + len(q.timers)
}

// Stop rejects new jobs and waits for queued jobs and pending retries to
// finish. When ctx expires first, retry timers are cancelled, in-flight
// sends are aborted and whatever is left is dropped.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.mu.Lock()
		lost := len(q.jobs)
		q.jobs = nil
		q.mu.Unlock()
		if lost > 0 {
			q.logger.Warn("email queue stopped before start, jobs discarded", "lost", lost)
			metrics.EmailJobs.WithLabelValues("dropped").Add(float64(lost))
		}
		q.cancel()
		q.logger.Info("email queue drained")
		return nil
	case <-ctx.Done():
	}

	q.mu.Lock()
	q.aborted = true
	lost := len(q.jobs)
	q.jobs = nil
	for seq, t := range q.timers {
		if t.Stop() {
			q.wg.Done()
		}
		delete(q.timers, seq)
		lost++
	}
	metrics.EmailQueueDepth.Set(0)
	q.mu.Unlock()
	q.cancel()

	metrics.EmailJobs.WithLabelValues("dropped").Add(float64(lost))
	q.logger.Error("email queue shutdown deadline exceeded, jobs lost", "lost", lost)
	return ctx.Err()
}

// Serve runs the queue under a supervisor until ctx is cancelled, then
// drains for up to DrainTimeout.
func (q *Queue) Serve(ctx context.Context) error {
	q.Start(ctx)
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.cfg.DrainTimeout)
	defer cancel()
	if err := q.Stop(stopCtx); err != nil {
		q.logger.Warn("email queue stop incomplete", "error", err)
	}
	return ctx.Err()
}

// String names the service in supervisor logs.
func (q *Queue) String() string {
	return "email-queue"
}

func (q *Queue) cancel() {
	q.mu.Lock()
	cancel := q.cancelSend
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// kickLocked starts the drain loop if it is not already running.
func (q *Queue) kickLocked() {
	if q.processing || !q.started || q.aborted || len(q.jobs) == 0 {
		return
	}
	q.processing = true
	q.wg.Add(1)
	go q.drain()
}

func (q *Queue) drain() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 || q.aborted {
			q.processing = false
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		metrics.EmailQueueDepth.Set(float64(len(q.jobs)))
		ctx := q.sendCtx
		q.mu.Unlock()

		q.attempt(ctx, job)
	}
}

func (q *Queue) attempt(ctx context.Context, job *Job) {
	log := logger.FromContextOrDefault(ctx, q.logger)

	sendCtx, cancel := context.WithTimeout(ctx, q.cfg.SendTimeout)
	start := time.Now()
	err := q.transport.Send(sendCtx, job.Message)
	cancel()
	metrics.RecordEmailSend(time.Since(start), err)

	if err == nil {
		metrics.EmailJobs.WithLabelValues("sent").Inc()
		log.Info("email sent",
			"job", job.seq,
			"to", redact.Email(job.To),
			"category", job.Category,
			"attempt", job.Retries+1)
		return
	}

	if errors.Is(err, ErrUnavailable) {
		log.Warn("email transport unavailable, deferring",
			"job", job.seq,
			"to", redact.Email(job.To),
			"retry_in", q.cfg.UnavailableDelay,
			"error", redact.Error(err))
		q.schedule(job, q.cfg.UnavailableDelay)
		return
	}

	job.Retries++
	if job.Retries >= job.MaxRetries {
		metrics.EmailJobs.WithLabelValues("dropped").Inc()
		log.Error("email dropped after max retries",
			"job", job.seq,
			"to", redact.Email(job.To),
			"category", job.Category,
			"attempts", job.Retries,
			"error", redact.Error(err))
		return
	}

	delay := q.backoff(job.Retries)
	log.Warn("email send failed, retrying",
		"job", job.seq,
		"to", redact.Email(job.To),
		"attempt", job.Retries,
		"retry_in", delay,
		"error", redact.Error(err))
	q.schedule(job, delay)
}

// backoff returns the delay before the next attempt after failures failed
// attempts: BaseDelay, 2*BaseDelay, 4*BaseDelay, ...
func (q *Queue) backoff(failures int) time.Duration {
	return q.cfg.BaseDelay << (failures - 1)
}

func (q *Queue) schedule(job *Job, delay time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.aborted {
		metrics.EmailJobs.WithLabelValues("dropped").Inc()
		q.logger.Warn("email retry discarded during shutdown", "job", job.seq)
		return
	}

	metrics.EmailJobs.WithLabelValues("retried").Inc()
	q.wg.Add(1)
	q.timers[job.seq] = time.AfterFunc(delay, func() { q.requeue(job) })
}

func (q *Queue) requeue(job *Job) {
	defer q.wg.Done()
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.timers[job.seq]; !ok {
		return
	}
	delete(q.timers, job.seq)
	q.jobs = append(q.jobs, job)
	metrics.EmailQueueDepth.Set(float64(len(q.jobs)))
	q.kickLocked()
}
