package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/api"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/automation"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/config"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/events"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/notify"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/notify/emailqueue"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/pipeline"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/postgres"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/smtp"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/realtime"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/recurrence"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/service/auth"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// eventBacklog bounds mutation events accepted but not yet processed.
const eventBacklog = 1024

// application holds the shared dependencies of the serve command.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore         store.UserStore
	projectStore      store.ProjectStore
	taskStore         store.TaskStore
	ruleStore         store.RuleStore
	notificationStore store.NotificationStore

	jwtService auth.JWTService

	hub        *realtime.Hub
	emitter    *events.InMemoryEventEmitter
	emailQueue *emailqueue.Queue
	dispatcher *notify.Dispatcher
	engine     *automation.Engine
	pipeline   *pipeline.Pipeline
	generator  *recurrence.Generator
}

// newApplication wires every component on top of an open database.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.projectStore = postgres.NewPostgresProjectStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.ruleStore = postgres.NewPostgresRuleStore(db, logger)
	app.notificationStore = postgres.NewPostgresNotificationStore(db, logger)

	app.hub = realtime.NewHub(app.projectStore, logger, cfg.Realtime.AllowedOrigins)

	transport := smtp.New(smtp.ConfigFromEmail(cfg.Email), logger)
	app.emailQueue = emailqueue.New(transport, emailqueue.Config{
		MaxRetries:       cfg.Email.MaxRetries,
		BaseDelay:        cfg.Email.BaseDelay,
		SendTimeout:      cfg.Email.SendTimeout,
		DrainTimeout:     cfg.Server.ShutdownTimeout,
		UnavailableDelay: cfg.Email.BreakerTimeout,
	}, logger)

	prefs := notify.NewPreferenceResolver(app.userStore, logger)
	app.dispatcher, err = notify.NewDispatcher(
		app.notificationStore,
		prefs,
		app.hub,
		app.emailQueue,
		cfg.Email.AppURL,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification dispatcher: %w", err)
	}

	app.engine = automation.NewEngine(app.ruleStore, app.taskStore, app.projectStore, app.userStore, logger)
	app.pipeline = pipeline.New(app.dispatcher, app.engine, app.userStore, app.hub, logger)

	app.emitter = events.NewInMemoryEventEmitter(logger, eventBacklog)
	app.emitter.RegisterHandler(app.pipeline)

	app.generator = recurrence.NewGenerator(app.taskStore, store.SQLTransactor{DB: db}, app.hub, logger)

	logger.Info("application initialized",
		"smtp_host", cfg.Email.SMTPHost,
		"recurrence_enabled", cfg.Recurrence.Enabled)
	return app, nil
}

// router builds the HTTP surface.
func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterDeps{
		JWT:       app.jwtService,
		Inbox:     app.dispatcher,
		Publisher: app.emitter,
		Realtime:  app.hub,
		DB:        app.db,
		Logger:    app.logger,
	})
}

// supervisor assembles the service tree. Delivery services sit in their own
// subtree so a crashing HTTP listener never restarts the email queue.
func (app *application) supervisor() *suture.Supervisor {
	hook := (&sutureslog.Handler{Logger: app.logger}).MustHook()

	spec := suture.Spec{
		EventHook:        hook,
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          app.config.Server.ShutdownTimeout + 5*time.Second,
	}
	childSpec := spec
	childSpec.EventHook = nil

	root := suture.New("taskkollecta", spec)
	delivery := suture.New("delivery-layer", childSpec)
	apiLayer := suture.New("api-layer", childSpec)

	delivery.Add(app.emailQueue)
	delivery.Add(app.hub)
	delivery.Add(app.emitter)
	if app.config.Recurrence.Enabled {
		delivery.Add(recurrence.NewScheduler(app.generator, app.config.Recurrence.Interval, app.logger))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	apiLayer.Add(newHTTPService(server, app.config.Server.ShutdownTimeout, app.logger))

	root.Add(delivery)
	root.Add(apiLayer)
	return root
}

// close releases resources not owned by the supervisor.
func (app *application) close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
}

// loadRuntime reads configuration, sets up logging and opens the database.
// Every command that touches storage starts here.
func loadRuntime(ctx context.Context) (*config.Config, *slog.Logger, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}
