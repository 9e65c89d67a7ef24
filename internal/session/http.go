package session

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
	r.Get("/sessions", h.ListPublic)
	r.Get("/sessions/{id}", h.Detail)
}

// RegisterTutorRoutes must be mounted behind the tutor role gate.
func (h *Handler) RegisterTutorRoutes(r chi.Router) {
	r.Post("/sessions/create", h.Create)
	r.Get("/tutor/sessions", h.ListForTutor)
	r.Patch("/sessions/rerequest-approval/{id}", h.RequestReapproval)
}

// RegisterAdminRoutes must be mounted behind the admin role gate.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/sessions", h.ListForAdmin)
	r.Get("/admin/sessions/{id}", h.Get)
	r.Patch("/admin/sessions/{id}/status", h.UpdateStatus)
	r.Delete("/admin/sessions/{id}", h.Delete)
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.PageParams(r)
	query := ListQuery{
		Page:     page,
		Limit:    limit,
		Sort:     r.URL.Query().Get("sort"),
		Category: r.URL.Query().Get("category"),
	}

	resp, err := h.service.ListPublic(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, detail)
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

	session, err := h.service.Create(r.Context(), tutor, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "session created", "session_id", session.ID, "tutor", tutor.Email)
	httputil.RespondWithJSON(w, http.StatusCreated, session)
}

func (h *Handler) ListForTutor(w http.ResponseWriter, r *http.Request) {
	tutor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	sessions, err := h.service.ListForTutor(r.Context(), tutor)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, sessions)
}

func (h *Handler) RequestReapproval(w http.ResponseWriter, r *http.Request) {
	tutor, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	session, err := h.service.RequestReapproval(r.Context(), tutor, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, session)
}

func (h *Handler) ListForAdmin(w http.ResponseWriter, r *http.Request) {
	page, limit := httputil.PageParams(r)
	query := ListQuery{
		Page:   page,
		Limit:  limit,
		Status: Status(r.URL.Query().Get("status")),
	}

	resp, err := h.service.ListForAdmin(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, session)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	var req StatusUpdate
	if !h.decode(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	session, err := h.service.UpdateStatus(r.Context(), admin, id, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "session status updated", "session_id", id, "status", session.Status, "admin", admin.Email)
	httputil.RespondWithJSON(w, http.StatusOK, session)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	id := chi.URLParam(r, "id")
	deletedMaterials, err := h.service.Delete(r.Context(), admin, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "session deleted", "session_id", id, "deleted_materials", deletedMaterials)
	httputil.RespondWithJSON(w, http.StatusOK, DeleteResponse{
		Message:          "session deleted",
		DeletedMaterials: deletedMaterials,
	})
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
	case errors.Is(err, ErrSessionNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTransition):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "session request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
