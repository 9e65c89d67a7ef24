package user

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("user already exists")
	ErrInvalidInput = errors.New("invalid input")
)

type Service interface {
	SearchUsers(ctx context.Context, filter SearchFilter) ([]User, int, error)
	ChangeRole(ctx context.Context, id string, role Role) (*User, error)
	ListTutors(ctx context.Context) ([]PublicProfile, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) SearchUsers(ctx context.Context, filter SearchFilter) ([]User, int, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, ErrInvalidInput
	}
	return s.repo.Search(ctx, filter)
}

func (s *service) ChangeRole(ctx context.Context, id string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, ErrInvalidInput
	}
	return s.repo.UpdateRole(ctx, id, role)
}

func (s *service) ListTutors(ctx context.Context) ([]PublicProfile, error) {
	tutors, err := s.repo.ListByRole(ctx, RoleTutor)
	if err != nil {
		return nil, err
	}

	profiles := make([]PublicProfile, 0, len(tutors))
	for i := range tutors {
		profiles = append(profiles, tutors[i].Public())
	}
	return profiles, nil
}
