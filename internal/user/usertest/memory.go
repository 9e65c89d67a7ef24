// Package usertest provides an in-memory user.Repository for handler and service tests.
package usertest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tutoring-service/internal/httputil"
	"tutoring-service/internal/user"

	"github.com/google/uuid"
)

type Repository struct {
	mu      sync.Mutex
	byEmail map[string]*user.User

	// Err, when set, is returned by every call.
	Err error
}

func NewRepository(users ...*user.User) *Repository {
	r := &Repository{byEmail: make(map[string]*user.User)}
	for _, u := range users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		r.byEmail[u.Email] = u
	}
	return r
}

func (r *Repository) Create(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, user.ErrEmailExists
	}
	if len(r.byEmail) == 0 {
		u.Role = user.RoleAdmin
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt

	stored := *u
	r.byEmail[u.Email] = &stored
	return u, nil
}

func (r *Repository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *Repository) UpdateProfile(_ context.Context, email string, update user.ProfileUpdate) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Photo != nil {
		u.Photo = *update.Photo
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Address != nil {
		u.Address = *update.Address
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (r *Repository) UpdateRole(_ context.Context, id string, role user.Role) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.byEmail {
		if u.ID == id {
			u.Role = role
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *Repository) Search(_ context.Context, filter user.SearchFilter) ([]user.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, 0, r.Err
	}
	needle := strings.ToLower(filter.Search)
	matched := make([]user.User, 0)
	for _, u := range r.byEmail {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) {
			continue
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Email < matched[j].Email })

	total := len(matched)
	offset := httputil.Offset(filter.Page, filter.Limit)
	if offset >= total {
		return []user.User{}, total, nil
	}
	end := offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *Repository) ListByRole(_ context.Context, role user.Role) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	users := make([]user.User, 0)
	for _, u := range r.byEmail {
		if u.Role == role {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}
