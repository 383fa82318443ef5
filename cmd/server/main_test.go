package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{
		{"serve"},
		{"migrate"},
		{"recurrence", "run"},
		{"token"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrate", "sideways"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

func TestValidateMigrationCommand(t *testing.T) {
	for _, c := range migrationCommands {
		assert.NoError(t, validateMigrationCommand(c), c)
	}
	assert.Error(t, validateMigrationCommand("create"))
	assert.Error(t, validateMigrationCommand(""))
}

func TestTokenRejectsMalformedUserID(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"token", "not-a-uuid"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid user ID")
}

func TestSlogGooseLogger(t *testing.T) {
	log, buf := logger.NewCaptureLogger()
	l := &slogGooseLogger{logger: log}

	l.Printf("OK   %s (%s)\n", "00001_init.sql", "12ms")
	l.Fatalf("failed to run migration: %v", errors.New("syntax error"))

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "OK   00001_init.sql (12ms)", entries[0]["msg"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "ERROR", entries[1]["level"])
}

// fakeHTTPServer blocks in ListenAndServe until Shutdown is called.
type fakeHTTPServer struct {
	listenErr error
	stopped   chan struct{}
	shutdowns atomic.Int32
}

func newFakeHTTPServer(listenErr error) *fakeHTTPServer {
	return &fakeHTTPServer{listenErr: listenErr, stopped: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.stopped)
	}
	return nil
}

func TestHTTPService(t *testing.T) {
	quiet := slog.New(slog.DiscardHandler)

	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		srv := newFakeHTTPServer(nil)
		svc := newHTTPService(srv, time.Second, quiet)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancel")
		}
		assert.Equal(t, int32(1), srv.shutdowns.Load())
	})

	t.Run("listen failure is returned", func(t *testing.T) {
		srv := newFakeHTTPServer(errors.New("address already in use"))
		svc := newHTTPService(srv, time.Second, quiet)

		err := svc.Serve(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "address already in use")
		assert.Equal(t, int32(0), srv.shutdowns.Load())
	})

	t.Run("default shutdown timeout", func(t *testing.T) {
		svc := newHTTPService(newFakeHTTPServer(nil), 0, quiet)
		assert.Equal(t, 10*time.Second, svc.shutdownTimeout)
		assert.Equal(t, "http-server", svc.String())
	})
}
