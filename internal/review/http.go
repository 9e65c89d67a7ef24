package review

import (
	"errors"
	"log/slog"
	"net/http"

	"tutoring-service/internal/auth"
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
	r.Get("/sessions/{id}/reviews", h.ListBySession)
}

// RegisterStudentRoutes must be mounted behind the student role gate.
func (h *Handler) RegisterStudentRoutes(r chi.Router) {
	r.Post("/student/reviews", h.Create)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	student, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	var req CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithErrorDetail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithErrorDetail(w, http.StatusBadRequest, "validation failed", err)
		return
	}

	review, err := h.service.Create(r.Context(), student, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, review)
}

func (h *Handler) ListBySession(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListBySession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, reviews)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		httputil.RespondWithError(w, http.StatusNotFound, "session not found")
		return
	}
	h.logger.ErrorContext(r.Context(), "review request failed", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}
