package material

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tutoring-service/internal/db"
	"tutoring-service/internal/httputil"
	"tutoring-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, material *Material) (*Material, error)
	ListByTutor(ctx context.Context, tutorEmail string) ([]Material, error)
	ListBySession(ctx context.Context, sessionID string) ([]Material, error)
	ListAll(ctx context.Context, page, limit int) ([]Material, int, error)
	// Update and Delete match on (id, tutorEmail); a material owned by someone else is
	// reported as ErrMaterialNotFound.
	Update(ctx context.Context, id, tutorEmail string, update UpdateRequest) (*Material, error)
	Delete(ctx context.Context, id, tutorEmail string) error
	DeleteByID(ctx context.Context, id string) error
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

func (r *repository) Create(ctx context.Context, material *Material) (*Material, error) {
	start := time.Now()
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	_, err := r.db.NewInsert().Model(material).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "materials", time.Since(start), err)

	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return material, nil
}

func (r *repository) ListByTutor(ctx context.Context, tutorEmail string) ([]Material, error) {
	start := time.Now()
	materials := make([]Material, 0)
	err := r.db.NewSelect().
		Model(&materials).
		Where("tutor_email = ?", tutorEmail).
		OrderExpr("created_at DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "materials", time.Since(start), err)

	return materials, err
}

func (r *repository) ListBySession(ctx context.Context, sessionID string) ([]Material, error) {
	materials := make([]Material, 0)
	if uuid.Validate(sessionID) != nil {
		return materials, nil
	}

	start := time.Now()
	err := r.db.NewSelect().
		Model(&materials).
		Where("session_id = ?", sessionID).
		OrderExpr("created_at DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "materials", time.Since(start), err)

	return materials, err
}

func (r *repository) ListAll(ctx context.Context, page, limit int) ([]Material, int, error) {
	start := time.Now()
	materials := make([]Material, 0)
	total, err := r.db.NewSelect().
		Model(&materials).
		OrderExpr("created_at DESC").
		Limit(limit).
		Offset(httputil.Offset(page, limit)).
		ScanAndCount(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "materials", time.Since(start), err)

	return materials, total, err
}

func (r *repository) Update(ctx context.Context, id, tutorEmail string, update UpdateRequest) (*Material, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrMaterialNotFound
	}

	start := time.Now()
	material := new(Material)
	q := r.db.NewUpdate().
		Model(material).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("tutor_email = ?", tutorEmail).
		Returning("*")

	if update.Title != nil {
		q = q.Set("title = ?", *update.Title)
	}
	if update.ImageURL != nil {
		q = q.Set("image_url = ?", *update.ImageURL)
	}
	if update.Link != nil {
		q = q.Set("link = ?", *update.Link)
	}

	result, err := q.Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "materials", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, ErrMaterialNotFound
	}
	return material, nil
}

func (r *repository) Delete(ctx context.Context, id, tutorEmail string) error {
	if uuid.Validate(id) != nil {
		return ErrMaterialNotFound
	}

	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*Material)(nil)).
		Where("id = ?", id).
		Where("tutor_email = ?", tutorEmail).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "materials", time.Since(start), err)

	return notFoundIfUnchanged(result, err)
}

func (r *repository) DeleteByID(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrMaterialNotFound
	}

	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*Material)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "materials", time.Since(start), err)

	return notFoundIfUnchanged(result, err)
}

func notFoundIfUnchanged(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrMaterialNotFound
	}
	return nil
}
