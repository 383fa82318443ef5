package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/postgres"
)

// migrationCommands lists the goose commands the migrate command accepts.
var migrationCommands = []string{"up", "up-by-one", "down", "redo", "reset", "status", "version"}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf implements goose.Logger. It does NOT call os.Exit; the error is
// returned to the command, which decides how to exit.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [" + strings.Join(migrationCommands, "|") + "]",
		Short: "Apply or inspect the embedded database migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateMigrationCommand(args[0]); err != nil {
				return err
			}

			_, logger, db, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return runMigrations(cmd.Context(), db, args[0], logger)
		},
	}
}

func validateMigrationCommand(command string) error {
	for _, c := range migrationCommands {
		if c == command {
			return nil
		}
	}
	return fmt.Errorf("unknown migration command %q (want one of %s)",
		command, strings.Join(migrationCommands, ", "))
}

// runMigrations executes a goose command against the embedded migrations.
func runMigrations(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	if err := validateMigrationCommand(command); err != nil {
		return err
	}

	// Correlate every goose line of this run.
	migrationLogger := logger.With(
		"correlation_id", uuid.New().String(),
		"component", "migrations",
		"command", command,
	)

	goose.SetLogger(&slogGooseLogger{logger: migrationLogger})
	goose.SetTableName(postgres.MigrationTableName)
	goose.SetBaseFS(postgres.Migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	start := time.Now()
	migrationLogger.Info("starting migration operation")
	if err := goose.RunContext(ctx, command, db, postgres.MigrationsDir); err != nil {
		migrationLogger.Error("migration operation failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	migrationLogger.Info("migration operation completed",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
