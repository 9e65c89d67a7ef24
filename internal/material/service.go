package material

import (
	"context"
	"errors"

	"tutoring-service/internal/user"
)

var (
	ErrMaterialNotFound = errors.New("material not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidInput     = errors.New("invalid input")
)

// SessionOwners answers whether a tutor owns a session.
type SessionOwners interface {
	IsOwnedBy(ctx context.Context, sessionID, tutorEmail string) (bool, error)
}

type Service interface {
	Create(ctx context.Context, tutor *user.User, req CreateRequest) (*Material, error)
	ListForTutor(ctx context.Context, tutor *user.User) ([]Material, error)
	ListBySession(ctx context.Context, sessionID string) ([]Material, error)
	Update(ctx context.Context, tutor *user.User, id string, req UpdateRequest) (*Material, error)
	Delete(ctx context.Context, tutor *user.User, id string) error
	ListAll(ctx context.Context, page, limit int) ([]Material, int, error)
	AdminDelete(ctx context.Context, id string) error
}

type service struct {
	repo     Repository
	sessions SessionOwners
}

func NewService(repo Repository, sessions SessionOwners) Service {
	return &service{
		repo:     repo,
		sessions: sessions,
	}
}

// Create attaches a material to one of the tutor's own sessions. Someone else's
// session reads as not found.
func (s *service) Create(ctx context.Context, tutor *user.User, req CreateRequest) (*Material, error) {
	owned, err := s.sessions.IsOwnedBy(ctx, req.SessionID, tutor.Email)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrSessionNotFound
	}

	return s.repo.Create(ctx, &Material{
		SessionID:  req.SessionID,
		TutorEmail: tutor.Email,
		Title:      req.Title,
		ImageURL:   req.ImageURL,
		Link:       req.Link,
	})
}

func (s *service) ListForTutor(ctx context.Context, tutor *user.User) ([]Material, error) {
	return s.repo.ListByTutor(ctx, tutor.Email)
}

func (s *service) ListBySession(ctx context.Context, sessionID string) ([]Material, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

func (s *service) Update(ctx context.Context, tutor *user.User, id string, req UpdateRequest) (*Material, error) {
	if req.Empty() {
		return nil, ErrInvalidInput
	}
	return s.repo.Update(ctx, id, tutor.Email, req)
}

func (s *service) Delete(ctx context.Context, tutor *user.User, id string) error {
	return s.repo.Delete(ctx, id, tutor.Email)
}

func (s *service) ListAll(ctx context.Context, page, limit int) ([]Material, int, error) {
	return s.repo.ListAll(ctx, page, limit)
}

func (s *service) AdminDelete(ctx context.Context, id string) error {
	return s.repo.DeleteByID(ctx, id)
}
