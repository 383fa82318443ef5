package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	apimiddleware "github.com/Andy-Fidel/TaskKollecta-sub001/internal/api/middleware"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/api/shared"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/metrics"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/service/auth"
)

const healthTimeout = 2 * time.Second

// WebsocketServer upgrades an authenticated request into a real-time
// connection. *realtime.Hub implements it.
type WebsocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID)
}

// Pinger reports database reachability. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps holds everything NewRouter wires into the HTTP surface.
type RouterDeps struct {
	JWT       auth.JWTService
	Inbox     Inbox
	Publisher EventPublisher
	Realtime  WebsocketServer
	DB        Pinger
	Logger    *slog.Logger
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// NewRouter builds the chi router:
//
//	GET  /health
//	GET  /metrics
//	GET  /ws                               (token in header or ?token=)
//	GET  /api/notifications
//	POST /api/notifications/read-all
//	POST /api/notifications/{id}/read
//	POST /api/events
func NewRouter(deps RouterDeps) http.Handler {
	if deps.JWT == nil {
		panic("jwt service cannot be nil")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware(log))

	authMiddleware := apimiddleware.NewAuthMiddleware(deps.JWT)

	r.Get("/health", healthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if deps.Realtime != nil {
		r.With(authMiddleware.Authenticate).Get("/ws", websocketHandler(deps.Realtime, log))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		if deps.Inbox != nil {
			notifications := NewNotificationHandler(deps.Inbox, log)
			r.Get("/notifications", notifications.List)
			r.Post("/notifications/read-all", notifications.MarkAllRead)
			r.Post("/notifications/{id}/read", notifications.MarkRead)
		}

		if deps.Publisher != nil {
			r.Post("/events", NewEventHandler(deps.Publisher, log).Publish)
		}
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.FromContext(r.Context()).Warn("health check: database unreachable", "error", err)
			shared.RespondWithJSON(w, r, http.StatusServiceUnavailable,
				HealthResponse{Status: "degraded", Database: "unreachable"})
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
	}
}

func websocketHandler(ws WebsocketServer, base *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContextOrDefault(r.Context(), base)
		userID, ok := requireUserID(w, r, log)
		if !ok {
			return
		}
		ws.ServeWS(w, r, userID)
	}
}
