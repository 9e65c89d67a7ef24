package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tutoring-service/internal/auth"
	"tutoring-service/internal/config"
	"tutoring-service/internal/events"
	"tutoring-service/internal/logger"
	"tutoring-service/internal/metrics"
	"tutoring-service/internal/session"
	"tutoring-service/internal/telemetry"
	"tutoring-service/testing/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	pgContainer := testdb.SetupSharedPostgres(t)
	t.Cleanup(func() { pgContainer.Cleanup(t) })
	pgContainer.RunMigrations(t, models...)

	a := &App{
		config: &config.Config{
			Auth: config.AuthConfig{JWTSecret: "test-secret-key-for-testing"},
		},
		router:    chi.NewRouter(),
		db:        pgContainer.DB,
		publisher: events.Nop{},
		telemetry: &telemetry.Telemetry{Metrics: metrics.NewMock()},
		logger:    logger.NewDiscard(),
	}
	a.routes()
	return a
}

func call(t *testing.T, h http.Handler, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, h http.Handler, name, email, role string) string {
	t.Helper()

	w := call(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp auth.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Token
}

func TestApp_MarketplaceFlow(t *testing.T) {
	h := newTestApp(t).Handler()

	adminToken := register(t, h, "Admin", "admin@x.com", "")
	tutorToken := register(t, h, "Tina", "tina@x.com", "tutor")
	studentToken := register(t, h, "Sam", "sam@x.com", "")

	t.Run("Health", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/health", "", nil).Code)
		assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/ready", "", nil).Code)
	})

	t.Run("RoleGate", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/api/student/notes", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/api/student/notes", "garbage", nil).Code)
		assert.Equal(t, http.StatusForbidden, call(t, h, http.MethodGet, "/api/tutor/sessions", studentToken, nil).Code)
		assert.Equal(t, http.StatusForbidden, call(t, h, http.MethodGet, "/api/admin/users", tutorToken, nil).Code)
		assert.Equal(t, http.StatusForbidden, call(t, h, http.MethodGet, "/api/student/notes", adminToken, nil).Code)
		assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/api/admin/users", adminToken, nil).Code)
	})

	regStart := time.Now().UTC()
	w := call(t, h, http.MethodPost, "/api/sessions/create", tutorToken, map[string]interface{}{
		"title":                 "Physics",
		"registrationStartDate": regStart.Format(time.RFC3339),
		"registrationEndDate":   regStart.Add(72 * time.Hour).Format(time.RFC3339),
		"classStartDate":        regStart.Add(96 * time.Hour).Format(time.RFC3339),
		"classEndDate":          regStart.Add(30 * 24 * time.Hour).Format(time.RFC3339),
		"fee":                   40,
		"status":                "approved",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created session.StudySession
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	require.Equal(t, session.StatusPending, created.Status)

	listTotal := func(t *testing.T) int {
		t.Helper()
		w := call(t, h, http.MethodGet, "/api/sessions", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp session.ListResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		return resp.Total
	}

	t.Run("PendingIsNotListed", func(t *testing.T) {
		assert.Zero(t, listTotal(t))
	})

	t.Run("AdminApproves", func(t *testing.T) {
		w := call(t, h, http.MethodPatch, "/api/admin/sessions/"+created.ID+"/status", adminToken, map[string]string{"status": "approved"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 1, listTotal(t))
	})

	t.Run("StudentBooksOnce", func(t *testing.T) {
		path := "/api/student/book-session/" + created.ID
		assert.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, path, studentToken, nil).Code)

		w := call(t, h, http.MethodPost, path, studentToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "you have already booked this session")
	})

	t.Run("AdminDeletes", func(t *testing.T) {
		w := call(t, h, http.MethodDelete, "/api/admin/sessions/"+created.ID, adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp session.DeleteResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Zero(t, resp.DeletedMaterials)
		assert.Zero(t, listTotal(t))

		w = call(t, h, http.MethodGet, "/api/student/booked-sessions", studentToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})
}
