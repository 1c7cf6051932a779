package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/evekey-api/internal/api"
	apiMiddleware "github.com/phrazzld/evekey-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	keyHandler := api.NewKeyHandler(app.keyService, app.keyStore, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/keys", keyHandler.SubmitKey)
		r.Get("/keys/{keyID}/characters", keyHandler.GetKeyCharacters)
	})

	healthHandler := api.NewHealthHandler(app.db, app.healthCache())
	r.Get("/healthz", healthHandler.Health)

	return r
}

// healthCache adapts the optional cache for the health endpoint without
// handing it a typed nil.
func (app *application) healthCache() api.CacheHealthChecker {
	if app.cache == nil {
		return nil
	}
	return app.cache
}
