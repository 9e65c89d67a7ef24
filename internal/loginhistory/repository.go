package loginhistory

import (
	"context"
	"time"

	"tutoring-service/internal/httputil"
	"tutoring-service/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, filter Filter) ([]Entry, int, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Append(ctx context.Context, entry *Entry) error {
	start := time.Now()
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = start.UTC()
	}
	_, err := r.db.NewInsert().Model(entry).Returning("id").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "login_history", time.Since(start), err)

	return err
}

func (r *repository) Query(ctx context.Context, filter Filter) ([]Entry, int, error) {
	start := time.Now()
	entries := make([]Entry, 0)
	q := r.db.NewSelect().
		Model(&entries).
		OrderExpr("logged_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(httputil.Offset(filter.Page, filter.Limit))

	if filter.Email != "" {
		q = q.Where("email = ?", filter.Email)
	}
	if filter.Event != "" {
		q = q.Where("event = ?", filter.Event)
	}
	if filter.From != nil {
		q = q.Where("logged_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("logged_at <= ?", *filter.To)
	}

	total, err := q.ScanAndCount(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "login_history", time.Since(start), err)

	return entries, total, err
}
