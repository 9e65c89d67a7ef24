package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tutoring-service/internal/events"
	"tutoring-service/internal/httputil"
	"tutoring-service/internal/metrics"
	"tutoring-service/internal/review"
	"tutoring-service/internal/user"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// ReviewLister reads the reviews shown on a session's detail page.
type ReviewLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]review.Review, error)
}

// TutorLookup resolves a session's tutor to a public profile.
type TutorLookup interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

type Service interface {
	Create(ctx context.Context, tutor *user.User, req CreateRequest) (*StudySession, error)
	ListPublic(ctx context.Context, query ListQuery) (*ListResponse, error)
	Detail(ctx context.Context, id string) (*Detail, error)
	ListForTutor(ctx context.Context, tutor *user.User) ([]StudySession, error)
	RequestReapproval(ctx context.Context, tutor *user.User, id string) (*StudySession, error)
	ListForAdmin(ctx context.Context, query ListQuery) (*ListResponse, error)
	Get(ctx context.Context, id string) (*StudySession, error)
	UpdateStatus(ctx context.Context, actor *user.User, id string, update StatusUpdate) (*StudySession, error)
	Delete(ctx context.Context, actor *user.User, id string) (int, error)
}

type service struct {
	repo      Repository
	reviews   ReviewLister
	tutors    TutorLookup
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(repo Repository, reviews ReviewLister, tutors TutorLookup, publisher events.Publisher, logger *slog.Logger, m *metrics.Metrics) Service {
	return &service{
		repo:      repo,
		reviews:   reviews,
		tutors:    tutors,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Create always stores a pending session stamped with the tutor's own identity.
func (s *service) Create(ctx context.Context, tutor *user.User, req CreateRequest) (*StudySession, error) {
	session, err := s.repo.Create(ctx, &StudySession{
		Title:                 req.Title,
		Description:           req.Description,
		Category:              req.Category,
		ImageURL:              req.ImageURL,
		Duration:              req.Duration,
		TutorName:             tutor.Name,
		TutorEmail:            tutor.Email,
		RegistrationStartDate: req.RegistrationStartDate,
		RegistrationEndDate:   req.RegistrationEndDate,
		ClassStartDate:        req.ClassStartDate,
		ClassEndDate:          req.ClassEndDate,
		Fee:                   req.Fee,
		Status:                StatusPending,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSessionCreated(ctx)
	events.PublishBestEffort(ctx, s.publisher, s.logger, events.New(events.SessionCreated, session.ID, tutor.Email, session))

	return session, nil
}

func (s *service) ListPublic(ctx context.Context, query ListQuery) (*ListResponse, error) {
	switch query.Sort {
	case SortNewest, SortFeeAsc, SortFeeDesc:
	default:
		return nil, ErrInvalidInput
	}

	sessions, total, err := s.repo.ListApproved(ctx, query, s.now())
	if err != nil {
		return nil, err
	}
	return newListResponse(sessions, total, query), nil
}

func (s *service) Detail(ctx context.Context, id string) (*Detail, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	tutor := user.PublicProfile{Name: session.TutorName, Email: session.TutorEmail}
	if u, err := s.tutors.GetByEmail(ctx, session.TutorEmail); err == nil {
		tutor = u.Public()
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}

	return &Detail{
		Session:       session,
		Reviews:       reviews,
		Tutor:         tutor,
		AverageRating: review.Average(reviews),
	}, nil
}

func (s *service) ListForTutor(ctx context.Context, tutor *user.User) ([]StudySession, error) {
	return s.repo.ListByTutor(ctx, tutor.Email)
}

// RequestReapproval moves the tutor's own rejected session back to pending. Any other
// state, or someone else's session, reads as not found.
func (s *service) RequestReapproval(ctx context.Context, tutor *user.User, id string) (*StudySession, error) {
	update := StatusUpdate{Status: StatusPending}
	from := AllowedSources(update.Status, tutor.Role)
	if len(from) == 0 {
		return nil, ErrInvalidTransition
	}

	session, err := s.repo.UpdateStatus(ctx, id, update, from, tutor.Email)
	if err != nil {
		return nil, err
	}

	s.statusChanged(ctx, tutor, session)
	return session, nil
}

func (s *service) ListForAdmin(ctx context.Context, query ListQuery) (*ListResponse, error) {
	if query.Status != "" && !query.Status.Valid() {
		return nil, ErrInvalidInput
	}

	sessions, total, err := s.repo.ListAll(ctx, query)
	if err != nil {
		return nil, err
	}
	return newListResponse(sessions, total, query), nil
}

func (s *service) Get(ctx context.Context, id string) (*StudySession, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateStatus(ctx context.Context, actor *user.User, id string, update StatusUpdate) (*StudySession, error) {
	from := AllowedSources(update.Status, actor.Role)
	if len(from) == 0 {
		return nil, ErrInvalidTransition
	}

	session, err := s.repo.UpdateStatus(ctx, id, update, from, "")
	if err != nil {
		return nil, err
	}

	s.statusChanged(ctx, actor, session)
	return session, nil
}

func (s *service) Delete(ctx context.Context, actor *user.User, id string) (int, error) {
	deletedMaterials, err := s.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}

	events.PublishBestEffort(ctx, s.publisher, s.logger, events.New(events.SessionDeleted, id, actor.Email, map[string]int{
		"deletedMaterials": deletedMaterials,
	}))
	return deletedMaterials, nil
}

func (s *service) statusChanged(ctx context.Context, actor *user.User, session *StudySession) {
	s.metrics.RecordSessionStatusChange(ctx, string(session.Status))
	events.PublishBestEffort(ctx, s.publisher, s.logger, events.New(events.SessionStatusChanged, session.ID, actor.Email, map[string]string{
		"status":     string(session.Status),
		"tutorEmail": session.TutorEmail,
	}))
}

func newListResponse(sessions []StudySession, total int, query ListQuery) *ListResponse {
	if sessions == nil {
		sessions = []StudySession{}
	}
	return &ListResponse{
		Sessions:   sessions,
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: httputil.TotalPages(total, query.Limit),
	}
}
