package main

import (
	"fmt"
	"log/slog"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/config"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
)

// setupLogger initializes the default structured logger from cfg.
func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return l, nil
}
