package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"tutoring-service/internal/httputil"
	"tutoring-service/internal/loginhistory"
	"tutoring-service/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service   *Service
	logger    *slog.Logger
	validator *validator.Validate
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/jwt", h.IssueToken)
	r.Post("/auth/register", h.Register)
	r.Post("/auth/social-login", h.SocialLogin)
	r.Post("/auth/login", h.Login)
}

// RegisterAuthenticatedRoutes must be mounted behind Authenticate.
func (h *Handler) RegisterAuthenticatedRoutes(r chi.Router) {
	r.Post("/auth/login-record", h.RecordLogin)
	r.Get("/auth/me", h.Me)
	r.Patch("/auth/profile", h.UpdateProfile)
}

// IssueToken signs a token for the posted claims
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.IssueToken(req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

// Register creates a new account
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), loginhistory.ClientFromRequest(r), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", "email", resp.User.Email, "role", resp.User.Role)
	httputil.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *Handler) SocialLogin(w http.ResponseWriter, r *http.Request) {
	var req SocialLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.SocialLogin(r.Context(), loginhistory.ClientFromRequest(r), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

// Login authenticates with email and password
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), loginhistory.ClientFromRequest(r), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user logged in", "email", req.Email)
	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) RecordLogin(w http.ResponseWriter, r *http.Request) {
	email, _ := GetEmail(r.Context())

	if err := h.service.RecordLogin(r.Context(), loginhistory.ClientFromRequest(r), email); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "login recorded"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	email, _ := GetEmail(r.Context())

	u, err := h.service.Me(r.Context(), email)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req user.ProfileUpdate
	if !h.decode(w, r, &req) {
		return
	}

	email, _ := GetEmail(r.Context())
	u, err := h.service.UpdateProfile(r.Context(), email, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, u)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode request", "error", err)
		httputil.RespondWithErrorDetail(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.logger.WarnContext(r.Context(), "validation failed", "error", err)
		httputil.RespondWithErrorDetail(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrEmailExists):
		httputil.RespondWithError(w, http.StatusBadRequest, "user already exists")
	case errors.Is(err, ErrInvalidCredentials):
		httputil.RespondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, user.ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, "nothing to update")
	default:
		h.logger.ErrorContext(r.Context(), "auth request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
