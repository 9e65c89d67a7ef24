package booking

import (
	"context"
	"errors"
	"log/slog"

	"tutoring-service/internal/events"
	"tutoring-service/internal/metrics"
	"tutoring-service/internal/session"
	"tutoring-service/internal/user"
)

var (
	ErrAlreadyBooked   = errors.New("you have already booked this session")
	ErrBookingNotFound = errors.New("booking not found")
)

// SessionReader resolves the session being booked.
type SessionReader interface {
	GetByID(ctx context.Context, id string) (*session.StudySession, error)
}

type Service interface {
	Book(ctx context.Context, student *user.User, sessionID string) (*Booking, error)
	ListForStudent(ctx context.Context, student *user.User) ([]Booking, error)
	GetForStudent(ctx context.Context, student *user.User, id string) (*Booking, error)
}

type service struct {
	repo      Repository
	sessions  SessionReader
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(repo Repository, sessions SessionReader, publisher events.Publisher, logger *slog.Logger, m *metrics.Metrics) Service {
	return &service{
		repo:      repo,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
	}
}

// Book reserves sessionID for student. The fee is copied from the session at booking time.
func (s *service) Book(ctx context.Context, student *user.User, sessionID string) (*Booking, error) {
	studySession, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Create(ctx, &Booking{
		StudentEmail: student.Email,
		StudentName:  student.Name,
		SessionID:    studySession.ID,
		TutorEmail:   studySession.TutorEmail,
		Fee:          studySession.Fee,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyBooked) {
			s.metrics.RecordDuplicateBooking(ctx)
		}
		return nil, err
	}

	s.metrics.RecordBookingCreated(ctx)
	events.PublishBestEffort(ctx, s.publisher, s.logger, events.New(events.BookingCreated, booking.SessionID, student.Email, booking))

	booking.Session = studySession
	return booking, nil
}

func (s *service) ListForStudent(ctx context.Context, student *user.User) ([]Booking, error) {
	return s.repo.ListByStudent(ctx, student.Email)
}

func (s *service) GetForStudent(ctx context.Context, student *user.User, id string) (*Booking, error) {
	return s.repo.GetForStudent(ctx, id, student.Email)
}
