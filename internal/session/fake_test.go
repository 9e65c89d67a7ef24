package session_test

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"tutoring-service/internal/events"
	"tutoring-service/internal/review"
	"tutoring-service/internal/session"

	"github.com/google/uuid"
)

// memoryRepo applies the same filters as the SQL repository.
type memoryRepo struct {
	mu        sync.Mutex
	sessions  map[string]*session.StudySession
	materials map[string]int
	lastNow   time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sessions:  make(map[string]*session.StudySession),
		materials: make(map[string]int),
	}
}

func (m *memoryRepo) Create(_ context.Context, s *session.StudySession) (*session.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now()
	cp := *s
	m.sessions[s.ID] = &cp
	return s, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*session.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memoryRepo) ListApproved(_ context.Context, q session.ListQuery, now time.Time) ([]session.StudySession, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastNow = now

	out := make([]session.StudySession, 0)
	for _, s := range m.sessions {
		if s.Status == session.StatusApproved && !s.RegistrationEndDate.Before(now) &&
			(q.Category == "" || q.Category == s.Category) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		switch q.Sort {
		case session.SortFeeAsc:
			return out[i].Fee < out[j].Fee
		case session.SortFeeDesc:
			return out[i].Fee > out[j].Fee
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, q), len(out), nil
}

func (m *memoryRepo) ListByTutor(_ context.Context, email string) ([]session.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]session.StudySession, 0)
	for _, s := range m.sessions {
		if s.TutorEmail == email {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListAll(_ context.Context, q session.ListQuery) ([]session.StudySession, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]session.StudySession, 0)
	for _, s := range m.sessions {
		if q.Status == "" || s.Status == q.Status {
			out = append(out, *s)
		}
	}
	return page(out, q), len(out), nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id string, u session.StatusUpdate, from []session.Status, tutorEmail string) (*session.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !slices.Contains(from, s.Status) || (tutorEmail != "" && s.TutorEmail != tutorEmail) {
		return nil, session.ErrSessionNotFound
	}
	s.Status = u.Status
	if u.Fee != nil {
		s.Fee = *u.Fee
	}
	if u.RejectionReason != nil {
		s.RejectionReason = *u.RejectionReason
	}
	if u.Feedback != nil {
		s.Feedback = *u.Feedback
	}
	cp := *s
	return &cp, nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return 0, session.ErrSessionNotFound
	}
	delete(m.sessions, id)
	n := m.materials[id]
	delete(m.materials, id)
	return n, nil
}

func (m *memoryRepo) IsOwnedBy(_ context.Context, id, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return ok && s.TutorEmail == email, nil
}

func (m *memoryRepo) status(id string) session.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id].Status
}

func page(items []session.StudySession, q session.ListQuery) []session.StudySession {
	start := (q.Page - 1) * q.Limit
	if start >= len(items) {
		return []session.StudySession{}
	}
	end := min(start+q.Limit, len(items))
	return items[start:end]
}

type reviewStub map[string][]review.Review

func (r reviewStub) ListBySession(_ context.Context, id string) ([]review.Review, error) {
	if list, ok := r[id]; ok {
		return list, nil
	}
	return []review.Review{}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
