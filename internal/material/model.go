package material

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Material struct {
	bun.BaseModel `bun:"table:materials,alias:m"`

	ID         string    `bun:"id,pk,type:uuid" json:"id"`
	SessionID  string    `bun:"session_id,type:uuid,notnull" json:"sessionId"`
	TutorEmail string    `bun:"tutor_email,notnull" json:"tutorEmail"`
	Title      string    `bun:"title,notnull" json:"title"`
	ImageURL   string    `bun:"image_url" json:"imageUrl"`
	Link       string    `bun:"link" json:"link"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

var _ bun.BeforeCreateTableHook = (*Material)(nil)

func (*Material) BeforeCreateTable(_ context.Context, query *bun.CreateTableQuery) error {
	query.ForeignKey(`("session_id") REFERENCES "study_sessions" ("id") ON DELETE CASCADE`)
	return nil
}

type CreateRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
	Title     string `json:"title" validate:"required,max=200"`
	ImageURL  string `json:"imageUrl" validate:"omitempty,url"`
	Link      string `json:"link" validate:"omitempty,url"`
}

// UpdateRequest changes the given fields only. The owning session cannot be changed.
type UpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url"`
	Link     *string `json:"link" validate:"omitempty,url"`
}

func (u UpdateRequest) Empty() bool {
	return u.Title == nil && u.ImageURL == nil && u.Link == nil
}
