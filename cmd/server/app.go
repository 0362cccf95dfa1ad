package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clipdeck/clipdeck/internal/api"
	apiMiddleware "github.com/clipdeck/clipdeck/internal/api/middleware"
	"github.com/clipdeck/clipdeck/internal/config"
	"github.com/clipdeck/clipdeck/internal/notify"
	"github.com/clipdeck/clipdeck/internal/platform/anki"
	"github.com/clipdeck/clipdeck/internal/platform/openai"
	"github.com/clipdeck/clipdeck/internal/queue"
	"github.com/clipdeck/clipdeck/internal/scheduler"
	"github.com/clipdeck/clipdeck/internal/service/save"
)

// application holds the wired dependencies of the daemon.
type application struct {
	config      *config.Config
	logger      *slog.Logger
	store       *queue.Store
	ankiClient  *anki.Client
	generator   *openai.Generator
	notifier    *notify.InMemoryEmitter
	sched       *scheduler.Scheduler
	saveService *save.Service
}

// newApplication wires the full pipeline: storage, card service client,
// generation client, notifications, scheduler, and the save orchestrator.
// Startup recovery arms the scheduler when clips survived a previous run.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	store, err := queue.Open(cfg.Storage.Path, logger)
	if err != nil {
		return nil, err
	}

	notifier := notify.NewInMemoryEmitter(logger)
	notifier.RegisterHandler(notify.NewLogHandler(logger))

	// The queue store reports every count change so the badge reflects the
	// pending total without polling.
	store.SetChangeHandler(func(count int) {
		if err := notifier.Emit(context.Background(), notify.NewBadge(count)); err != nil {
			logger.Error("failed to emit badge notification", "error", err)
		}
	})

	ankiClient := anki.NewClient(cfg.Anki.Endpoint, logger)
	generator := openai.NewGenerator(cfg.LLM, logger)

	sched := scheduler.New(time.Duration(cfg.Anki.SyncDelaySeconds)*time.Second, logger)

	saveService := save.New(
		ankiClient,
		generator,
		generator,
		store,
		sched,
		notifier,
		cfg.Save,
		cfg.LLM.APIKey,
		logger,
	)

	sched.OnFire(saveService.SyncPending)
	sched.Recover(store.Len())

	return &application{
		config:      cfg,
		logger:      logger,
		store:       store,
		ankiClient:  ankiClient,
		generator:   generator,
		notifier:    notifier,
		sched:       sched,
		saveService: saveService,
	}, nil
}

// setupRouter configures the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	clipHandler := api.NewClipHandler(app.saveService, app.ankiClient, app.store, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/capture", clipHandler.Capture)
		r.Post("/confirm", clipHandler.Confirm)
		r.Get("/decks", clipHandler.Decks)
		r.Get("/models", clipHandler.Models)
		r.Get("/queue", clipHandler.Queue)
		r.Post("/queue/flush", clipHandler.FlushQueue)
		r.Get("/history", clipHandler.History)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

// cleanup releases resources on shutdown. The scheduler stops first so no
// flush fires against a closed store.
func (app *application) cleanup() {
	app.sched.Stop()
	if err := app.store.Close(); err != nil {
		app.logger.Error("failed to close queue store", "error", err)
	}
}
