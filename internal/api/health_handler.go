package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/phrazzld/evekey-api/internal/api/shared"
)

// CacheHealthChecker reports the health of an optional cache backend.
type CacheHealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler handles GET /healthz.
type HealthHandler struct {
	db    *sql.DB
	cache CacheHealthChecker
}

// NewHealthHandler creates a health handler. cache may be nil when response
// caching is disabled.
func NewHealthHandler(db *sql.DB, cache CacheHealthChecker) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

type healthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache,omitempty"`
}

// Health reports 200 when the database is reachable, 503 otherwise. Cache
// trouble is reported in the body but does not fail the check; the service
// works without its cache.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}

	resp := healthResponse{Status: "ok"}
	if h.cache != nil {
		if err := h.cache.Health(r.Context()); err != nil {
			resp.Cache = "unavailable"
		} else {
			resp.Cache = "ok"
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
