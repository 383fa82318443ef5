package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, websocket hub, email queue and recurrence scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, logger, db, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer app.close()

	logger.Info("server starting", "port", cfg.Server.Port, "version", Version)
	err = app.supervisor().Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("supervisor stopped with error", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
