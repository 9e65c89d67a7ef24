package session

import (
	"context"
	"testing"
	"time"

	"tutoring-service/internal/events"
	"tutoring-service/internal/logger"
	"tutoring-service/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clockRepo struct {
	Repository
	now time.Time
}

func (r *clockRepo) ListApproved(_ context.Context, _ ListQuery, now time.Time) ([]StudySession, int, error) {
	r.now = now
	return nil, 0, nil
}

func TestService_ListPublicUsesClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &clockRepo{}

	svc := NewService(repo, nil, nil, events.Nop{}, logger.NewDiscard(), metrics.NewMock()).(*service)
	svc.now = func() time.Time { return fixed }

	resp, err := svc.ListPublic(context.Background(), ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, fixed, repo.now)
	assert.NotNil(t, resp.Sessions)
	assert.Zero(t, resp.TotalPages)
}
