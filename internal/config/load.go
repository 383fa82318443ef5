package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "TASKKOLLECTA"

// keys lists every configuration key so viper can resolve them from the
// environment during Unmarshal.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.shutdown_timeout",
	"database.url",
	"database.max_open_conns",
	"database.max_idle_conns",
	"auth.jwt_secret",
	"auth.token_lifetime",
	"email.smtp_host",
	"email.smtp_port",
	"email.smtp_username",
	"email.smtp_password",
	"email.use_tls",
	"email.from",
	"email.from_name",
	"email.app_url",
	"email.max_retries",
	"email.base_delay",
	"email.send_timeout",
	"email.rate_per_second",
	"email.rate_burst",
	"email.breaker_failures",
	"email.breaker_timeout",
	"realtime.allowed_origins",
	"recurrence.enabled",
	"recurrence.interval",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.token_lifetime", time.Hour)

	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.from_name", "TaskKollecta")
	v.SetDefault("email.max_retries", 3)
	v.SetDefault("email.base_delay", time.Second)
	v.SetDefault("email.send_timeout", 30*time.Second)
	v.SetDefault("email.rate_per_second", 10.0)
	v.SetDefault("email.rate_burst", 5)
	v.SetDefault("email.breaker_failures", 5)
	v.SetDefault("email.breaker_timeout", 60*time.Second)

	v.SetDefault("recurrence.enabled", true)
	v.SetDefault("recurrence.interval", time.Hour)
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
