package user

import (
	"errors"
	"log/slog"
	"net/http"

	"tutoring-service/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/tutors", h.ListTutors)
}

// RegisterAdminRoutes must be mounted behind the admin role gate.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/users", h.SearchUsers)
	r.Patch("/admin/users/{id}/role", h.ChangeRole)
}

func (h *Handler) ListTutors(w http.ResponseWriter, r *http.Request) {
	tutors, err := h.service.ListTutors(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, tutors)
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.PageParams(r)
	filter := SearchFilter{
		Search: r.URL.Query().Get("search"),
		Role:   Role(r.URL.Query().Get("role")),
		Page:   page,
		Limit:  limit,
	}

	users, total, err := h.service.SearchUsers(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, httputil.NewPage(users, total, page, limit))
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithErrorDetail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithErrorDetail(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	id := chi.URLParam(r, "id")
	u, err := h.service.ChangeRole(r.Context(), id, req.Role)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user role changed", "user_id", id, "role", req.Role)
	httputil.RespondWithJSON(w, http.StatusOK, u)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "user request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
