package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tutoring-service/internal/db"
	"tutoring-service/internal/metrics"
	"tutoring-service/internal/session"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository interface {
	// Create relies on the unique (student_email, session_id) index, so concurrent
	// duplicates fail with ErrAlreadyBooked as well.
	Create(ctx context.Context, booking *Booking) (*Booking, error)
	ListByStudent(ctx context.Context, studentEmail string) ([]Booking, error)
	GetForStudent(ctx context.Context, id, studentEmail string) (*Booking, error)
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

func (r *repository) Create(ctx context.Context, booking *Booking) (*Booking, error) {
	start := time.Now()
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	_, err := r.db.NewInsert().Model(booking).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "booked_sessions", time.Since(start), err)

	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return nil, ErrAlreadyBooked
		case db.IsForeignKeyViolation(err):
			return nil, session.ErrSessionNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentEmail string) ([]Booking, error) {
	start := time.Now()
	bookings := make([]Booking, 0)
	err := r.db.NewSelect().
		Model(&bookings).
		Relation("Session").
		Where("b.student_email = ?", studentEmail).
		OrderExpr("b.booked_at DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "booked_sessions", time.Since(start), err)

	return bookings, err
}

func (r *repository) GetForStudent(ctx context.Context, id, studentEmail string) (*Booking, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrBookingNotFound
	}

	start := time.Now()
	booking := new(Booking)
	err := r.db.NewSelect().
		Model(booking).
		Relation("Session").
		Where("b.id = ?", id).
		Where("b.student_email = ?", studentEmail).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "booked_sessions", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}
