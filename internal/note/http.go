package note

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

// RegisterStudentRoutes must be mounted behind the student role gate.
func (h *Handler) RegisterStudentRoutes(r chi.Router) {
	r.Post("/student/notes", h.Create)
	r.Get("/student/notes", h.List)
	r.Get("/student/notes/{id}", h.Get)
	r.Patch("/student/notes/{id}", h.Update)
	r.Delete("/student/notes/{id}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	student, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	var req CreateRequest
	if !h.decode(w, r, &req) {
		return
	}

	note, err := h.service.Create(r.Context(), student, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, note)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	student, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	notes, err := h.service.List(r.Context(), student)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, notes)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	student, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	note, err := h.service.Get(r.Context(), student, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, note)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	student, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	var req UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	note, err := h.service.Update(r.Context(), student, chi.URLParam(r, "id"), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, note)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	student, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	if err := h.service.Delete(r.Context(), student, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "note deleted"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		httputil.RespondWithErrorDetail(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		httputil.RespondWithErrorDetail(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoteNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "note not found")
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, "nothing to update")
	default:
		h.logger.ErrorContext(r.Context(), "note request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
