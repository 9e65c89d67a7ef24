package review

import (
	"context"
	"time"

	"tutoring-service/internal/db"
	"tutoring-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, review *Review) (*Review, error)
	ListBySession(ctx context.Context, sessionID string) ([]Review, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(bunDB *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      bunDB,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, review *Review) (*Review, error) {
	start := time.Now()
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	_, err := r.db.NewInsert().Model(review).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "reviews", time.Since(start), err)

	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return review, nil
}

func (r *repository) ListBySession(ctx context.Context, sessionID string) ([]Review, error) {
	reviews := make([]Review, 0)
	if uuid.Validate(sessionID) != nil {
		return reviews, nil
	}

	start := time.Now()
	err := r.db.NewSelect().
		Model(&reviews).
		Where("session_id = ?", sessionID).
		OrderExpr("created_at DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "reviews", time.Since(start), err)

	return reviews, err
}
