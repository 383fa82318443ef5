package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	Email      EmailConfig      `mapstructure:"email" validate:"required"`
	Realtime   RealtimeConfig   `mapstructure:"realtime"`
	Recurrence RecurrenceConfig `mapstructure:"recurrence"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains the settings used to verify bearer tokens.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gte=1m"`
}

// EmailConfig configures the outbound mail transport and the delivery queue.
type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host" validate:"required,hostname|ip"`
	SMTPPort     int    `mapstructure:"smtp_port" validate:"required,gt=0,lt=65536"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	UseTLS       bool   `mapstructure:"use_tls"`
	From         string `mapstructure:"from" validate:"required,email"`
	FromName     string `mapstructure:"from_name"`

	// AppURL is linked from every notification email.
	AppURL string `mapstructure:"app_url" validate:"required,url"`

	MaxRetries  int           `mapstructure:"max_retries" validate:"gte=1,lte=10"`
	BaseDelay   time.Duration `mapstructure:"base_delay" validate:"gt=0"`
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"gt=0"`

	// RatePerSecond caps outbound sends; zero disables the limiter.
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gte=0"`
	RateBurst     int     `mapstructure:"rate_burst" validate:"gte=1"`

	BreakerFailures uint32        `mapstructure:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout" validate:"gt=0"`
}

// RealtimeConfig configures the websocket hub.
type RealtimeConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RecurrenceConfig configures the in-process recurrence scheduler.
type RecurrenceConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=1m"`
}
