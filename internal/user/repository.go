package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tutoring-service/internal/db"
	"tutoring-service/internal/httputil"
	"tutoring-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type Repository interface {
	// Create inserts u. The first user ever stored becomes admin regardless of the
	// requested role.
	Create(ctx context.Context, u *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, email string, update ProfileUpdate) (*User, error)
	UpdateRole(ctx context.Context, id string, role Role) (*User, error)
	Search(ctx context.Context, filter SearchFilter) ([]User, int, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
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

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	start := time.Now()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Serializes concurrent registrations so only one of them can see an empty table.
		if _, err := tx.ExecContext(ctx, "LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return err
		}

		count, err := tx.NewSelect().Model((*User)(nil)).Count(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			u.Role = RoleAdmin
		}

		_, err = tx.NewInsert().Model(u).Returning("*").Exec(ctx)
		return err
	})

	r.metrics.Database.RecordQuery(ctx, "insert", "users", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return u, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	start := time.Now()
	u := new(User)
	err := r.db.NewSelect().
		Model(u).
		Where("email = ?", email).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrUserNotFound
	}

	start := time.Now()
	u := new(User)
	err := r.db.NewSelect().
		Model(u).
		Where("id = ?", id).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *repository) UpdateProfile(ctx context.Context, email string, update ProfileUpdate) (*User, error) {
	start := time.Now()
	u := new(User)
	q := r.db.NewUpdate().
		Model(u).
		Set("updated_at = ?", time.Now()).
		Where("email = ?", email).
		Returning("*")

	if update.Name != nil {
		q = q.Set("name = ?", *update.Name)
	}
	if update.Photo != nil {
		q = q.Set("photo = ?", *update.Photo)
	}
	if update.Phone != nil {
		q = q.Set("phone = ?", *update.Phone)
	}
	if update.Address != nil {
		q = q.Set("address = ?", *update.Address)
	}

	result, err := q.Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "users", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *repository) UpdateRole(ctx context.Context, id string, role Role) (*User, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrUserNotFound
	}

	start := time.Now()
	u := new(User)
	result, err := r.db.NewUpdate().
		Model(u).
		Set("role = ?", role).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "users", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *repository) Search(ctx context.Context, filter SearchFilter) ([]User, int, error) {
	start := time.Now()
	users := make([]User, 0)
	q := r.db.NewSelect().
		Model(&users).
		OrderExpr("created_at DESC").
		Limit(filter.Limit).
		Offset(httputil.Offset(filter.Page, filter.Limit))

	if filter.Search != "" {
		pattern := "%" + likeEscaper.Replace(filter.Search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("name ILIKE ?", pattern).WhereOr("email ILIKE ?", pattern)
		})
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}

	total, err := q.ScanAndCount(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	return users, total, err
}

func (r *repository) ListByRole(ctx context.Context, role Role) ([]User, error) {
	start := time.Now()
	users := make([]User, 0)
	err := r.db.NewSelect().
		Model(&users).
		Where("role = ?", role).
		OrderExpr("name ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	return users, err
}
