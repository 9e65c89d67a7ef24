package review

import (
	"context"
	"math"
	"time"

	"github.com/uptrace/bun"
)

type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:r"`

	ID           string    `bun:"id,pk,type:uuid" json:"id"`
	SessionID    string    `bun:"session_id,type:uuid,notnull" json:"sessionId"`
	StudentEmail string    `bun:"student_email,notnull" json:"studentEmail"`
	StudentName  string    `bun:"student_name" json:"studentName"`
	Rating       int       `bun:"rating,notnull" json:"rating"`
	Comment      string    `bun:"comment" json:"comment"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

var _ bun.BeforeCreateTableHook = (*Review)(nil)

func (*Review) BeforeCreateTable(_ context.Context, query *bun.CreateTableQuery) error {
	query.ForeignKey(`("session_id") REFERENCES "study_sessions" ("id") ON DELETE CASCADE`)
	return nil
}

type CreateRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// Average is the mean rating rounded to one decimal place, 0 without reviews.
func Average(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}
