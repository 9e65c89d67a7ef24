package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tutoring-service/internal/loginhistory"
	"tutoring-service/internal/metrics"
	"tutoring-service/internal/user"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Service struct {
	users   user.Repository
	history loginhistory.Service
	tokens  *TokenManager
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(users user.Repository, history loginhistory.Service, tokens *TokenManager, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		users:   users,
		history: history,
		tokens:  tokens,
		logger:  logger,
		metrics: m,
	}
}

// Register creates a password account. The first account in an empty store is made admin
// by the repository.
func (s *Service) Register(ctx context.Context, client loginhistory.Client, req RegisterRequest) (*AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = user.RoleStudent
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &user.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     role,
		Photo:    req.Photo,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRegistration(ctx, "password")
	s.recordHistory(ctx, client, u, loginhistory.EventRegister)

	return s.respond(u)
}

// SocialLogin returns the account for req.Email, creating it with a random credential
// when it does not exist yet.
func (s *Service) SocialLogin(ctx context.Context, client loginhistory.Client, req SocialLoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
	case errors.Is(err, user.ErrUserNotFound):
		u, err = s.createSocialUser(ctx, req)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.recordHistory(ctx, client, u, loginhistory.EventSocialLogin)

	return s.respond(u)
}

func (s *Service) createSocialUser(ctx context.Context, req SocialLoginRequest) (*user.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &user.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     user.RoleStudent,
		Photo:    req.Photo,
	})
	if errors.Is(err, user.ErrEmailExists) {
		// A concurrent request created it first.
		return s.users.GetByEmail(ctx, req.Email)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRegistration(ctx, "social")
	return u, nil
}

func (s *Service) Login(ctx context.Context, client loginhistory.Client, req LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.recordHistory(ctx, client, u, loginhistory.EventLogin)

	return s.respond(u)
}

// RecordLogin appends a login entry for an already authenticated caller.
func (s *Service) RecordLogin(ctx context.Context, client loginhistory.Client, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := s.history.Record(ctx, client, u.Email, u.Name, loginhistory.EventLogin); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	s.metrics.RecordLogin(ctx, loginhistory.EventLogin)
	return nil
}

// IssueToken signs a token for the posted identity without consulting the store.
func (s *Service) IssueToken(req TokenRequest) (*TokenResponse, error) {
	token, err := s.tokens.Issue(req.Email, req.Name)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{Token: token}, nil
}

func (s *Service) Me(ctx context.Context, email string) (*user.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *Service) UpdateProfile(ctx context.Context, email string, update user.ProfileUpdate) (*user.User, error) {
	if update.Empty() {
		return nil, user.ErrInvalidInput
	}
	return s.users.UpdateProfile(ctx, email, update)
}

func (s *Service) respond(u *user.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(u.Email, u.Name)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: u}, nil
}

// recordHistory is best effort: the account write has already succeeded.
func (s *Service) recordHistory(ctx context.Context, client loginhistory.Client, u *user.User, event string) {
	if err := s.history.Record(ctx, client, u.Email, u.Name, event); err != nil {
		s.logger.WarnContext(ctx, "failed to record login history", "email", u.Email, "event", event, "error", err)
		return
	}
	s.metrics.RecordLogin(ctx, event)
}
