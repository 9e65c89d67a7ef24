package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tutoring-service/internal/httputil"
	"tutoring-service/internal/material"
	"tutoring-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, session *StudySession) (*StudySession, error)
	GetByID(ctx context.Context, id string) (*StudySession, error)
	// ListApproved returns sessions that are approved and still open for registration at now.
	ListApproved(ctx context.Context, query ListQuery, now time.Time) ([]StudySession, int, error)
	ListByTutor(ctx context.Context, tutorEmail string) ([]StudySession, error)
	ListAll(ctx context.Context, query ListQuery) ([]StudySession, int, error)
	// UpdateStatus applies update only while the current status is one of from and, when
	// tutorEmail is set, the session belongs to that tutor. Otherwise ErrSessionNotFound.
	UpdateStatus(ctx context.Context, id string, update StatusUpdate, from []Status, tutorEmail string) (*StudySession, error)
	// Delete removes the session and its materials in one transaction and reports how
	// many materials went with it.
	Delete(ctx context.Context, id string) (int, error)
	IsOwnedBy(ctx context.Context, sessionID, tutorEmail string) (bool, error)
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

func (r *repository) Create(ctx context.Context, session *StudySession) (*StudySession, error) {
	start := time.Now()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	_, err := r.db.NewInsert().Model(session).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "study_sessions", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*StudySession, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrSessionNotFound
	}

	start := time.Now()
	session := new(StudySession)
	err := r.db.NewSelect().
		Model(session).
		Where("id = ?", id).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "study_sessions", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (r *repository) ListApproved(ctx context.Context, query ListQuery, now time.Time) ([]StudySession, int, error) {
	start := time.Now()
	sessions := make([]StudySession, 0)
	q := r.db.NewSelect().
		Model(&sessions).
		Where("status = ?", StatusApproved).
		Where("registration_end_date >= ?", now).
		Limit(query.Limit).
		Offset(httputil.Offset(query.Page, query.Limit))

	if query.Category != "" {
		q = q.Where("category = ?", query.Category)
	}

	switch query.Sort {
	case SortFeeAsc:
		q = q.OrderExpr("fee ASC, created_at DESC")
	case SortFeeDesc:
		q = q.OrderExpr("fee DESC, created_at DESC")
	default:
		q = q.OrderExpr("created_at DESC")
	}

	total, err := q.ScanAndCount(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "study_sessions", time.Since(start), err)

	return sessions, total, err
}

func (r *repository) ListByTutor(ctx context.Context, tutorEmail string) ([]StudySession, error) {
	start := time.Now()
	sessions := make([]StudySession, 0)
	err := r.db.NewSelect().
		Model(&sessions).
		Where("tutor_email = ?", tutorEmail).
		OrderExpr("created_at DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "study_sessions", time.Since(start), err)

	return sessions, err
}

func (r *repository) ListAll(ctx context.Context, query ListQuery) ([]StudySession, int, error) {
	start := time.Now()
	sessions := make([]StudySession, 0)
	q := r.db.NewSelect().
		Model(&sessions).
		OrderExpr("created_at DESC").
		Limit(query.Limit).
		Offset(httputil.Offset(query.Page, query.Limit))

	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}

	total, err := q.ScanAndCount(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "study_sessions", time.Since(start), err)

	return sessions, total, err
}

func (r *repository) UpdateStatus(ctx context.Context, id string, update StatusUpdate, from []Status, tutorEmail string) (*StudySession, error) {
	if uuid.Validate(id) != nil || len(from) == 0 {
		return nil, ErrSessionNotFound
	}

	start := time.Now()
	session := new(StudySession)
	q := r.db.NewUpdate().
		Model(session).
		Set("status = ?", update.Status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("status IN (?)", bun.In(from)).
		Returning("*")

	if tutorEmail != "" {
		q = q.Where("tutor_email = ?", tutorEmail)
	}
	if update.Fee != nil {
		q = q.Set("fee = ?", *update.Fee)
	}
	if update.RejectionReason != nil {
		q = q.Set("rejection_reason = ?", *update.RejectionReason)
	}
	if update.Feedback != nil {
		q = q.Set("feedback = ?", *update.Feedback)
	}

	result, err := q.Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "study_sessions", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (r *repository) Delete(ctx context.Context, id string) (int, error) {
	if uuid.Validate(id) != nil {
		return 0, ErrSessionNotFound
	}

	start := time.Now()
	var deletedMaterials int
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewDelete().
			Model((*material.Material)(nil)).
			Where("session_id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		materials, err := result.RowsAffected()
		if err != nil {
			return err
		}

		result, err = tx.NewDelete().
			Model((*StudySession)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrSessionNotFound
		}

		deletedMaterials = int(materials)
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "delete", "study_sessions", time.Since(start), err)

	if err != nil {
		return 0, err
	}
	return deletedMaterials, nil
}

func (r *repository) IsOwnedBy(ctx context.Context, sessionID, tutorEmail string) (bool, error) {
	if uuid.Validate(sessionID) != nil {
		return false, nil
	}

	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*StudySession)(nil)).
		Where("id = ?", sessionID).
		Where("tutor_email = ?", tutorEmail).
		Exists(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "study_sessions", time.Since(start), err)

	return exists, err
}
