package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

// Pinger checks a backing store, *sql.DB satisfies it
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RootHandler answers health checks and turns every unknown path into a
// JSON 404
type RootHandler struct {
	db      Pinger
	version string
	logger  logger.Logger
}

// NewRootHandler creates a root handler. db may be nil, in which case the
// health check only reports the process as up.
func NewRootHandler(db Pinger, version string, logger logger.Logger) *RootHandler {
	return &RootHandler{
		db:      db,
		version: version,
		logger:  logger,
	}
}

func (h *RootHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/", h.Handle)
}

func (h *RootHandler) Handle(w http.ResponseWriter, r *http.Request) {
	WriteJSONError(w, "Not found", http.StatusNotFound)
}

func (h *RootHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WithField("error", err.Error()).Warn("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unavailable",
				"version": h.version,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}
