package loginhistory

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tutoring-service/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterAdminRoutes must be mounted behind the admin role gate.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/login-history", h.List)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.PageParams(r)
	query := r.URL.Query()

	filter := Filter{
		Email: query.Get("email"),
		Event: query.Get("event"),
		Page:  page,
		Limit: limit,
	}

	var err error
	if filter.From, err = parseTime(query.Get("from")); err != nil {
		httputil.RespondWithErrorDetail(w, http.StatusBadRequest, "invalid from", err)
		return
	}
	if filter.To, err = parseTime(query.Get("to")); err != nil {
		httputil.RespondWithErrorDetail(w, http.StatusBadRequest, "invalid to", err)
		return
	}

	entries, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, ErrInvalidFilter) {
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to query login history", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, httputil.NewPage(entries, total, page, limit))
}

// parseTime accepts RFC 3339 timestamps or plain dates.
func parseTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
