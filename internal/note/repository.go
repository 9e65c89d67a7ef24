package note

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tutoring-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository scopes every lookup and mutation by (id, studentEmail).
type Repository interface {
	Create(ctx context.Context, note *Note) (*Note, error)
	List(ctx context.Context, studentEmail string) ([]Note, error)
	Get(ctx context.Context, id, studentEmail string) (*Note, error)
	Update(ctx context.Context, id, studentEmail string, update UpdateRequest) (*Note, error)
	Delete(ctx context.Context, id, studentEmail string) error
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

func (r *repository) Create(ctx context.Context, note *Note) (*Note, error) {
	start := time.Now()
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	_, err := r.db.NewInsert().Model(note).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "notes", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return note, nil
}

func (r *repository) List(ctx context.Context, studentEmail string) ([]Note, error) {
	start := time.Now()
	notes := make([]Note, 0)
	err := r.db.NewSelect().
		Model(&notes).
		Where("student_email = ?", studentEmail).
		OrderExpr("updated_at DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "notes", time.Since(start), err)

	return notes, err
}

func (r *repository) Get(ctx context.Context, id, studentEmail string) (*Note, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNoteNotFound
	}

	start := time.Now()
	note := new(Note)
	err := r.db.NewSelect().
		Model(note).
		Where("id = ?", id).
		Where("student_email = ?", studentEmail).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "notes", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

func (r *repository) Update(ctx context.Context, id, studentEmail string, update UpdateRequest) (*Note, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNoteNotFound
	}

	start := time.Now()
	note := new(Note)
	q := r.db.NewUpdate().
		Model(note).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("student_email = ?", studentEmail).
		Returning("*")

	if update.Title != nil {
		q = q.Set("title = ?", *update.Title)
	}
	if update.Description != nil {
		q = q.Set("description = ?", *update.Description)
	}

	result, err := q.Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "notes", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (r *repository) Delete(ctx context.Context, id, studentEmail string) error {
	if uuid.Validate(id) != nil {
		return ErrNoteNotFound
	}

	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*Note)(nil)).
		Where("id = ?", id).
		Where("student_email = ?", studentEmail).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "notes", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
