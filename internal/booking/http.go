package booking

import (
	"errors"
	"log/slog"
	"net/http"

	"tutoring-service/internal/auth"
	"tutoring-service/internal/httputil"
	"tutoring-service/internal/session"

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

// RegisterStudentRoutes must be mounted behind the student role gate.
func (h *Handler) RegisterStudentRoutes(r chi.Router) {
	r.Post("/student/book-session/{sessionId}", h.Book)
	r.Get("/student/booked-sessions", h.List)
	r.Get("/student/booked-sessions/{id}", h.Get)
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	student, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	sessionID := chi.URLParam(r, "sessionId")
	booking, err := h.service.Book(r.Context(), student, sessionID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "session booked", "session_id", sessionID, "student", student.Email)
	httputil.RespondWithJSON(w, http.StatusCreated, booking)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	student, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	bookings, err := h.service.ListForStudent(r.Context(), student)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, bookings)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	student, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden access")
		return
	}

	booking, err := h.service.GetForStudent(r.Context(), student, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, booking)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAlreadyBooked):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, ErrBookingNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "booking not found")
	default:
		h.logger.ErrorContext(r.Context(), "booking request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
