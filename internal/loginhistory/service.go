package loginhistory

import (
	"context"
	"errors"
	"net"
	"net/http"
)

var ErrInvalidFilter = errors.New("invalid filter")

type Service interface {
	Record(ctx context.Context, client Client, email, name, event string) error
	List(ctx context.Context, filter Filter) ([]Entry, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

// Client identifies where a login came from.
type Client struct {
	IPAddress string
	UserAgent string
}

func ClientFromRequest(r *http.Request) Client {
	return Client{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func (s *service) Record(ctx context.Context, client Client, email, name, event string) error {
	return s.repo.Append(ctx, &Entry{
		Email:     email,
		Name:      name,
		Event:     event,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})
}

func (s *service) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	switch filter.Event {
	case "", EventRegister, EventSocialLogin, EventLogin:
	default:
		return nil, 0, ErrInvalidFilter
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, ErrInvalidFilter
	}
	return s.repo.Query(ctx, filter)
}

// clientIP is the host part of RemoteAddr. Proxy headers are resolved by the router's
// RealIP middleware before this runs.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
