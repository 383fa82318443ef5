// Package smtp is the outbound email transport used by the delivery queue.
// Messages are composed with go-message and sent over a plain SMTP session.
// A circuit breaker stops hammering a provider that keeps failing, and an
// optional rate limiter keeps sends under the provider's quota.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	netsmtp "net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/config"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/notify/emailqueue"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
)

// ErrCircuitOpen is returned while the breaker refuses sends. The queue
// defers such jobs instead of counting an attempt.
var ErrCircuitOpen = fmt.Errorf("smtp circuit breaker open: %w", emailqueue.ErrUnavailable)

const defaultDialTimeout = 10 * time.Second

// Config holds the transport settings.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	UseTLS      bool
	From        string
	FromName    string
	DialTimeout time.Duration

	RatePerSecond float64
	RateBurst     int

	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// ConfigFromEmail maps the application email settings to a transport Config.
func ConfigFromEmail(cfg config.EmailConfig) Config {
	return Config{
		Host:            cfg.SMTPHost,
		Port:            cfg.SMTPPort,
		Username:        cfg.SMTPUsername,
		Password:        cfg.SMTPPassword,
		UseTLS:          cfg.UseTLS,
		From:            cfg.From,
		FromName:        cfg.FromName,
		DialTimeout:     cfg.SendTimeout,
		RatePerSecond:   cfg.RatePerSecond,
		RateBurst:       cfg.RateBurst,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
	}
}

// deliverFunc performs the SMTP session for one composed message.
type deliverFunc func(ctx context.Context, to string, body []byte) error

// Transport implements emailqueue.Transport.
type Transport struct {
	cfg     Config
	breaker *gobreaker.CircuitBreaker[struct{}]
	limiter *rate.Limiter
	deliver deliverFunc
	now     func() time.Time
	logger  *slog.Logger
}

var _ emailqueue.Transport = (*Transport)(nil)

// New creates a Transport.
func New(cfg Config, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	t := &Transport{
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("component", "smtp_transport"),
	}
	t.deliver = t.deliverSMTP

	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	t.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			t.logger.Warn("smtp circuit breaker state changed",
				"from", from.String(),
				"to", to.String())
		},
	})
	return t
}

// Send composes msg and delivers it. Any error is retryable from the
// queue's point of view.
func (t *Transport) Send(ctx context.Context, msg emailqueue.Message) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("smtp rate limit wait: %w", err)
		}
	}

	body, err := t.compose(msg)
	if err != nil {
		return err
	}

	_, err = t.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, t.deliver(ctx, msg.To, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, t.logger).Debug("smtp send failed", "error", err)
	}
	return err
}

// State reports the breaker state, for health output.
func (t *Transport) State() string {
	return t.breaker.State().String()
}

// compose renders msg as a single-part HTML MIME message.
func (t *Transport) compose(msg emailqueue.Message) ([]byte, error) {
	var h mail.Header
	h.SetDate(t.now())
	h.SetAddressList("From", []*mail.Address{{Name: t.cfg.FromName, Address: t.cfg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := w.Write([]byte(msg.HTMLBody)); err != nil {
		return nil, fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// deliverSMTP runs one SMTP session: dial, optional STARTTLS, optional
// PLAIN auth, MAIL/RCPT/DATA, QUIT.
func (t *Transport) deliverSMTP(ctx context.Context, to string, body []byte) error {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))

	dialer := &net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := netsmtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if t.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: t.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if t.cfg.Username != "" && t.cfg.Password != "" {
		auth := netsmtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(t.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// The message is accepted once DATA closes.
	_ = client.Quit()
	return nil
}
