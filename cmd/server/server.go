package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// httpServer is the lifecycle subset of *http.Server.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// httpService runs an HTTP server under the supervisor and shuts it down
// gracefully when the supervisor stops.
type httpService struct {
	server          httpServer
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

func newHTTPService(server httpServer, shutdownTimeout time.Duration, logger *slog.Logger) *httpService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &httpService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With("component", "http_server"),
	}
}

// Serve implements suture.Service. http.ErrServerClosed is not an error.
func (h *httpService) Serve(ctx context.Context) error {
	if srv, ok := h.server.(*http.Server); ok {
		h.logger.Info("starting server", "addr", srv.Addr)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		h.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		h.logger.Info("server shutdown completed")
		return ctx.Err()
	}
}

// String names the service in supervisor logs.
func (h *httpService) String() string {
	return "http-server"
}
