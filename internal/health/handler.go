package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tutoring-service/internal/httputil"
	"tutoring-service/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Pinger is satisfied by *bun.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Check reports whether an optional dependency, such as the event broker, is usable.
type Check func() error

type Handler struct {
	db      Pinger
	checks  map[string]Check
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(db Pinger, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		db:      db,
		checks:  make(map[string]Check),
		logger:  logger,
		metrics: m,
	}
}

// AddCheck makes readiness depend on check as well as the database.
func (h *Handler) AddCheck(name string, check Check) {
	h.checks[name] = check
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready reports whether the database answers within two seconds and every added check passes.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ready := h.probe(r.Context(), "postgres", func() error { return h.db.PingContext(ctx) })
	for name, check := range h.checks {
		ready = h.probe(r.Context(), name, check) && ready
	}

	if !ready {
		httputil.RespondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}

func (h *Handler) probe(ctx context.Context, name string, check Check) bool {
	start := time.Now()
	err := check()
	h.metrics.Dependencies.RecordCheck(ctx, name, time.Since(start), err)

	if err != nil {
		h.logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
		return false
	}
	return true
}
