package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/api/shared"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
)

// TraceMiddleware adds a trace ID to the request context and stores a
// logger carrying it, so every log line for the request can be correlated.
// Apply it first in the chain.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			log := logger.FromContextOrDefault(ctx, base).With(slog.String("trace_id", traceID))
			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(logger.WithLogger(ctx, log)))
		})
	}
}
