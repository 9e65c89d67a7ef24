package material

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

// RegisterAuthenticatedRoutes must be mounted behind Authenticate.
func (h *Handler) RegisterAuthenticatedRoutes(r chi.Router) {
	r.Get("/materials/session/{sessionId}", h.ListBySession)
}

// RegisterTutorRoutes must be mounted behind the tutor role gate.
func (h *Handler) RegisterTutorRoutes(r chi.Router) {
	r.Post("/materials", h.Create)
	r.Get("/tutor/materials", h.ListForTutor)
	r.Patch("/materials/{id}", h.Update)
	r.Delete("/materials/{id}", h.Delete)
}

// RegisterAdminRoutes must be mounted behind the admin role gate.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/materials", h.ListAll)
	r.Delete("/admin/materials/{id}", h.AdminDelete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tutor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	var req CreateRequest
	if !h.decode(w, r, &req) {
		return
	}

	material, err := h.service.Create(r.Context(), tutor, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, material)
}

func (h *Handler) ListForTutor(w http.ResponseWriter, r *http.Request) {
	tutor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	materials, err := h.service.ListForTutor(r.Context(), tutor)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, materials)
}

func (h *Handler) ListBySession(w http.ResponseWriter, r *http.Request) {
	materials, err := h.service.ListBySession(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, materials)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tutor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	var req UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	material, err := h.service.Update(r.Context(), tutor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, material)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tutor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	if err := h.service.Delete(r.Context(), tutor, chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "material deleted"})
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.PageParams(r)

	materials, total, err := h.service.ListAll(r.Context(), page, limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, httputil.NewPage(materials, total, page, limit))
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.AdminDelete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "material removed by admin", "material_id", id)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "material deleted"})
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
	case errors.Is(err, ErrMaterialNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "material not found")
	case errors.Is(err, ErrSessionNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, "nothing to update")
	default:
		h.logger.ErrorContext(r.Context(), "material request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
