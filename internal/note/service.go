package note

import (
	"context"
	"errors"

	"tutoring-service/internal/user"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Service interface {
	Create(ctx context.Context, student *user.User, req CreateRequest) (*Note, error)
	List(ctx context.Context, student *user.User) ([]Note, error)
	Get(ctx context.Context, student *user.User, id string) (*Note, error)
	Update(ctx context.Context, student *user.User, id string, req UpdateRequest) (*Note, error)
	Delete(ctx context.Context, student *user.User, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) Create(ctx context.Context, student *user.User, req CreateRequest) (*Note, error) {
	return s.repo.Create(ctx, &Note{
		StudentEmail: student.Email,
		Title:        req.Title,
		Description:  req.Description,
	})
}

func (s *service) List(ctx context.Context, student *user.User) ([]Note, error) {
	return s.repo.List(ctx, student.Email)
}

func (s *service) Get(ctx context.Context, student *user.User, id string) (*Note, error) {
	return s.repo.Get(ctx, id, student.Email)
}

func (s *service) Update(ctx context.Context, student *user.User, id string, req UpdateRequest) (*Note, error) {
	if req.Title == nil && req.Description == nil {
		return nil, ErrInvalidInput
	}
	return s.repo.Update(ctx, id, student.Email, req)
}

func (s *service) Delete(ctx context.Context, student *user.User, id string) error {
	return s.repo.Delete(ctx, id, student.Email)
}
