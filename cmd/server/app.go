package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/evekey-api/internal/config"
	"github.com/phrazzld/evekey-api/internal/platform/eveapi"
	"github.com/phrazzld/evekey-api/internal/platform/postgres"
	"github.com/phrazzld/evekey-api/internal/platform/rediscache"
	"github.com/phrazzld/evekey-api/internal/service"
	"github.com/phrazzld/evekey-api/internal/store"
	"github.com/phrazzld/evekey-api/internal/task"
)

// application holds the wired dependencies of the running server.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	db         *sql.DB
	cache      *rediscache.Cache // nil when caching is disabled
	keyStore   store.KeyStore
	runner     *task.Runner
	keyService *service.KeyService
}

// newApplication wires the full dependency graph: database, cache, provider
// client, worker runner and services. It does not start anything.
func newApplication(cfg *config.Config) (*application, error) {
	logger := slog.Default()

	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	cache, err := rediscache.New(cfg.Cache)
	if err != nil {
		// The cache is an optimization. A dead redis should not keep the
		// service from starting.
		logger.Warn("response cache unavailable, continuing without it", "error", err)
		cache = nil
	}

	var responseCache eveapi.ResponseCache = eveapi.NopCache{}
	if cache != nil {
		responseCache = cache
	}

	client, err := eveapi.NewClient(cfg.EveAPI, responseCache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	verifier, err := service.NewVerifierAdapter(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create verifier adapter: %w", err)
	}

	keyStore := postgres.NewPostgresKeyStore(db, logger)

	runner := task.NewRunner(task.RunnerConfig{
		WorkerCount:   cfg.Worker.Count,
		QueueSize:     cfg.Worker.QueueSize,
		ShutdownGrace: cfg.Worker.ShutdownGrace,
	}, logger)

	keyService, err := service.NewKeyService(runner, verifier, keyStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create key service: %w", err)
	}

	return &application{
		config:     cfg,
		logger:     logger,
		db:         db,
		cache:      cache,
		keyStore:   keyStore,
		runner:     runner,
		keyService: keyService,
	}, nil
}

// run starts the worker runner, the result drainer and the HTTP server, then
// blocks until shutdown completes.
func (app *application) run() error {
	if err := app.runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	drainerDone := app.startResultDrainer()

	err := app.startHTTPServer(app.setupRouter())

	// Stop drains queued lookups within the shutdown grace, then the result
	// channel is released and the drainer exits.
	app.runner.Stop()
	<-drainerDone

	app.cleanup()
	return err
}

// cleanup releases connections after the runner has stopped.
func (app *application) cleanup() {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Warn("failed to close cache connection", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn("failed to close database connection", "error", err)
	}
	app.logger.Info("cleanup completed")
}
