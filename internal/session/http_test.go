package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tutoring-service/internal/auth"
	"tutoring-service/internal/events"
	"tutoring-service/internal/logger"
	"tutoring-service/internal/metrics"
	"tutoring-service/internal/review"
	"tutoring-service/internal/session"
	"tutoring-service/internal/user"
	"tutoring-service/internal/user/usertest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin   = &user.User{Name: "Admin", Email: "admin@x.com", Role: user.RoleAdmin}
	tutor   = &user.User{Name: "Tina", Email: "tina@x.com", Role: user.RoleTutor, Photo: "tina.png"}
	other   = &user.User{Name: "Tom", Email: "tom@x.com", Role: user.RoleTutor}
	student = &user.User{Name: "Sam", Email: "sam@x.com", Role: user.RoleStudent}
)

type sessionFixture struct {
	router    chi.Router
	repo      *memoryRepo
	reviews   reviewStub
	publisher *recordingPublisher
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	log := logger.NewDiscard()
	f := &sessionFixture{
		repo:      newMemoryRepo(),
		reviews:   reviewStub{},
		publisher: &recordingPublisher{},
	}

	users := usertest.NewRepository(&user.User{Name: tutor.Name, Email: tutor.Email, Role: tutor.Role, Photo: tutor.Photo})
	service := session.NewService(f.repo, f.reviews, users, f.publisher, log, metrics.NewMock())
	handler := session.NewHandler(service, log)

	f.router = chi.NewRouter()
	handler.RegisterPublicRoutes(f.router)
	handler.RegisterTutorRoutes(f.router)
	handler.RegisterAdminRoutes(f.router)
	return f
}

func (f *sessionFixture) do(t *testing.T, actor *user.User, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req = req.WithContext(auth.WithUser(req.Context(), actor))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *sessionFixture) seed(t *testing.T, s session.StudySession) *session.StudySession {
	t.Helper()
	if s.RegistrationEndDate.IsZero() {
		s.RegistrationEndDate = time.Now().Add(72 * time.Hour)
	}
	created, err := f.repo.Create(context.Background(), &s)
	require.NoError(t, err)
	return created
}

func createPayload() map[string]interface{} {
	start := time.Now().Add(24 * time.Hour).UTC()
	return map[string]interface{}{
		"title":                 "Linear Algebra",
		"description":           "Vectors and matrices",
		"category":              "math",
		"duration":              "6 weeks",
		"registrationStartDate": start.Format(time.RFC3339),
		"registrationEndDate":   start.Add(7 * 24 * time.Hour).Format(time.RFC3339),
		"classStartDate":        start.Add(10 * 24 * time.Hour).Format(time.RFC3339),
		"classEndDate":          start.Add(40 * 24 * time.Hour).Format(time.RFC3339),
		"fee":                   25.5,
	}
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestSessionHandler_Create(t *testing.T) {
	t.Run("ForcesPendingAndStampsTutor", func(t *testing.T) {
		f := newSessionFixture(t)

		payload := createPayload()
		payload["status"] = "approved"
		payload["tutorEmail"] = "someone@else.com"
		payload["tutorName"] = "Impostor"

		w := f.do(t, tutor, http.MethodPost, "/sessions/create", payload)
		require.Equal(t, http.StatusCreated, w.Code)

		created := decodeBody[session.StudySession](t, w)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, session.StatusPending, created.Status)
		assert.Equal(t, tutor.Email, created.TutorEmail)
		assert.Equal(t, tutor.Name, created.TutorName)
		assert.Equal(t, 25.5, created.Fee)
		assert.Equal(t, []string{events.SessionCreated}, f.publisher.types())
	})

	t.Run("RegistrationEndsBeforeStart", func(t *testing.T) {
		f := newSessionFixture(t)

		payload := createPayload()
		payload["registrationEndDate"] = time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

		w := f.do(t, tutor, http.MethodPost, "/sessions/create", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("NegativeFee", func(t *testing.T) {
		f := newSessionFixture(t)

		payload := createPayload()
		payload["fee"] = -1

		w := f.do(t, tutor, http.MethodPost, "/sessions/create", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MissingTitle", func(t *testing.T) {
		f := newSessionFixture(t)

		payload := createPayload()
		delete(payload, "title")

		w := f.do(t, tutor, http.MethodPost, "/sessions/create", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("WithoutGatedUser", func(t *testing.T) {
		f := newSessionFixture(t)

		w := f.do(t, nil, http.MethodPost, "/sessions/create", createPayload())
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestSessionHandler_ListPublic(t *testing.T) {
	f := newSessionFixture(t)
	f.seed(t, session.StudySession{Title: "cheap", Category: "math", Fee: 5, Status: session.StatusApproved, TutorEmail: tutor.Email})
	f.seed(t, session.StudySession{Title: "pricey", Category: "math", Fee: 50, Status: session.StatusApproved, TutorEmail: tutor.Email})
	f.seed(t, session.StudySession{Title: "art", Category: "art", Fee: 20, Status: session.StatusApproved, TutorEmail: tutor.Email})
	f.seed(t, session.StudySession{Title: "waiting", Fee: 1, Status: session.StatusPending, TutorEmail: tutor.Email})
	f.seed(t, session.StudySession{Title: "closed", Fee: 1, Status: session.StatusApproved, TutorEmail: tutor.Email, RegistrationEndDate: time.Now().Add(-time.Hour)})

	t.Run("OnlyApprovedAndOpen", func(t *testing.T) {
		w := f.do(t, nil, http.MethodGet, "/sessions", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[session.ListResponse](t, w)
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, 10, resp.Limit)
		assert.Equal(t, 1, resp.TotalPages)
		for _, s := range resp.Sessions {
			assert.Equal(t, session.StatusApproved, s.Status)
		}
	})

	t.Run("SortByFee", func(t *testing.T) {
		w := f.do(t, nil, http.MethodGet, "/sessions?sort=fee_asc", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[session.ListResponse](t, w)
		require.Len(t, resp.Sessions, 3)
		assert.Equal(t, "cheap", resp.Sessions[0].Title)

		w = f.do(t, nil, http.MethodGet, "/sessions?sort=fee_desc", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp = decodeBody[session.ListResponse](t, w)
		require.Len(t, resp.Sessions, 3)
		assert.Equal(t, "pricey", resp.Sessions[0].Title)
	})

	t.Run("CategoryAndPaging", func(t *testing.T) {
		w := f.do(t, nil, http.MethodGet, "/sessions?category=math&page=2&limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[session.ListResponse](t, w)
		assert.Equal(t, 2, resp.Total)
		assert.Equal(t, 2, resp.TotalPages)
		assert.Len(t, resp.Sessions, 1)
	})

	t.Run("UnknownSort", func(t *testing.T) {
		w := f.do(t, nil, http.MethodGet, "/sessions?sort=title", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionHandler_Detail(t *testing.T) {
	t.Run("ReviewsTutorAndAverage", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "algebra", Status: session.StatusApproved, TutorName: tutor.Name, TutorEmail: tutor.Email})
		f.reviews[s.ID] = []review.Review{{Rating: 5}, {Rating: 4}, {Rating: 4}}

		w := f.do(t, nil, http.MethodGet, "/sessions/"+s.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		detail := decodeBody[session.Detail](t, w)
		assert.Equal(t, s.ID, detail.Session.ID)
		assert.Len(t, detail.Reviews, 3)
		assert.Equal(t, 4.3, detail.AverageRating)
		assert.Equal(t, "tina.png", detail.Tutor.Photo)
	})

	t.Run("UnknownTutorFallsBackToSession", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "orphan", Status: session.StatusApproved, TutorName: "Gone", TutorEmail: "gone@x.com"})

		w := f.do(t, nil, http.MethodGet, "/sessions/"+s.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		detail := decodeBody[session.Detail](t, w)
		assert.Equal(t, "Gone", detail.Tutor.Name)
		assert.Equal(t, "gone@x.com", detail.Tutor.Email)
		assert.Empty(t, detail.Reviews)
		assert.Zero(t, detail.AverageRating)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newSessionFixture(t)

		w := f.do(t, nil, http.MethodGet, "/sessions/does-not-exist", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSessionHandler_Reapproval(t *testing.T) {
	t.Run("OwnRejectedSession", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "x", Status: session.StatusRejected, TutorEmail: tutor.Email, RejectionReason: "too short"})

		w := f.do(t, tutor, http.MethodPatch, "/sessions/rerequest-approval/"+s.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, session.StatusPending, f.repo.status(s.ID))
		assert.Equal(t, []string{events.SessionStatusChanged}, f.publisher.types())
	})

	t.Run("SomeoneElsesSession", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "x", Status: session.StatusRejected, TutorEmail: tutor.Email})

		w := f.do(t, other, http.MethodPatch, "/sessions/rerequest-approval/"+s.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, session.StatusRejected, f.repo.status(s.ID))
	})

	t.Run("NotRejected", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "x", Status: session.StatusApproved, TutorEmail: tutor.Email})

		w := f.do(t, tutor, http.MethodPatch, "/sessions/rerequest-approval/"+s.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, session.StatusApproved, f.repo.status(s.ID))
		assert.Empty(t, f.publisher.types())
	})
}

func TestSessionHandler_TutorList(t *testing.T) {
	f := newSessionFixture(t)
	f.seed(t, session.StudySession{Title: "mine", Status: session.StatusPending, TutorEmail: tutor.Email})
	f.seed(t, session.StudySession{Title: "also mine", Status: session.StatusRejected, TutorEmail: tutor.Email})
	f.seed(t, session.StudySession{Title: "theirs", Status: session.StatusApproved, TutorEmail: other.Email})

	w := f.do(t, tutor, http.MethodGet, "/tutor/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	sessions := decodeBody[[]session.StudySession](t, w)
	assert.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.Equal(t, tutor.Email, s.TutorEmail)
	}
}

func TestSessionHandler_Admin(t *testing.T) {
	t.Run("ApproveWithFee", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "x", Status: session.StatusPending, TutorEmail: tutor.Email})

		w := f.do(t, admin, http.MethodPatch, "/admin/sessions/"+s.ID+"/status", map[string]interface{}{"status": "approved", "fee": 30})
		require.Equal(t, http.StatusOK, w.Code)

		updated := decodeBody[session.StudySession](t, w)
		assert.Equal(t, session.StatusApproved, updated.Status)
		assert.Equal(t, 30.0, updated.Fee)
	})

	t.Run("RejectWithReason", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "x", Status: session.StatusPending, TutorEmail: tutor.Email})

		w := f.do(t, admin, http.MethodPatch, "/admin/sessions/"+s.ID+"/status", map[string]interface{}{
			"status": "rejected", "rejectionReason": "incomplete", "feedback": "add a syllabus",
		})
		require.Equal(t, http.StatusOK, w.Code)

		updated := decodeBody[session.StudySession](t, w)
		assert.Equal(t, session.StatusRejected, updated.Status)
		assert.Equal(t, "incomplete", updated.RejectionReason)
		assert.Equal(t, "add a syllabus", updated.Feedback)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "x", Status: session.StatusPending, TutorEmail: tutor.Email})

		w := f.do(t, admin, http.MethodPatch, "/admin/sessions/"+s.ID+"/status", map[string]interface{}{"status": "archived"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("TutorCannotApproveThroughService", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "x", Status: session.StatusPending, TutorEmail: tutor.Email})

		w := f.do(t, tutor, http.MethodPatch, "/admin/sessions/"+s.ID+"/status", map[string]interface{}{"status": "approved"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, session.StatusPending, f.repo.status(s.ID))
	})

	t.Run("ListFiltersByStatus", func(t *testing.T) {
		f := newSessionFixture(t)
		f.seed(t, session.StudySession{Title: "a", Status: session.StatusPending})
		f.seed(t, session.StudySession{Title: "b", Status: session.StatusApproved})

		w := f.do(t, admin, http.MethodGet, "/admin/sessions?status=pending", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[session.ListResponse](t, w)
		assert.Equal(t, 1, resp.Total)

		w = f.do(t, admin, http.MethodGet, "/admin/sessions?status=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GetAnyStatus", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "x", Status: session.StatusRejected})

		w := f.do(t, admin, http.MethodGet, "/admin/sessions/"+s.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("DeleteReportsMaterials", func(t *testing.T) {
		f := newSessionFixture(t)
		s := f.seed(t, session.StudySession{Title: "x", Status: session.StatusApproved})
		f.repo.materials[s.ID] = 3

		w := f.do(t, admin, http.MethodDelete, "/admin/sessions/"+s.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[session.DeleteResponse](t, w)
		assert.Equal(t, 3, resp.DeletedMaterials)
		assert.Equal(t, []string{events.SessionDeleted}, f.publisher.types())

		w = f.do(t, admin, http.MethodDelete, "/admin/sessions/"+s.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
