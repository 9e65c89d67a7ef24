package review

import (
	"context"
	"errors"

	"tutoring-service/internal/user"
)

var ErrSessionNotFound = errors.New("session not found")

type Service interface {
	Create(ctx context.Context, student *user.User, req CreateRequest) (*Review, error)
	ListBySession(ctx context.Context, sessionID string) ([]Review, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

// Create stores a review; the reviewer is always the gated caller, never the body.
func (s *service) Create(ctx context.Context, student *user.User, req CreateRequest) (*Review, error) {
	return s.repo.Create(ctx, &Review{
		SessionID:    req.SessionID,
		StudentEmail: student.Email,
		StudentName:  student.Name,
		Rating:       req.Rating,
		Comment:      req.Comment,
	})
}

func (s *service) ListBySession(ctx context.Context, sessionID string) ([]Review, error) {
	return s.repo.ListBySession(ctx, sessionID)
}
