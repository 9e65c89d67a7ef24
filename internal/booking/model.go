package booking

import (
	"context"
	"time"

	"tutoring-service/internal/session"

	"github.com/uptrace/bun"
)

// Booking is a student's seat in a study session. (student_email, session_id) is unique.
type Booking struct {
	bun.BaseModel `bun:"table:booked_sessions,alias:b"`

	ID           string    `bun:"id,pk,type:uuid" json:"id"`
	StudentEmail string    `bun:"student_email,notnull,unique:booked_sessions_student_session_key" json:"studentEmail"`
	StudentName  string    `bun:"student_name" json:"studentName"`
	SessionID    string    `bun:"session_id,type:uuid,notnull,unique:booked_sessions_student_session_key" json:"sessionId"`
	TutorEmail   string    `bun:"tutor_email,notnull" json:"tutorEmail"`
	Fee          float64   `bun:"fee,type:numeric(10,2),notnull" json:"fee"`
	BookedAt     time.Time `bun:"booked_at,nullzero,notnull,default:current_timestamp" json:"bookedAt"`

	Session *session.StudySession `bun:"rel:belongs-to,join:session_id=id" json:"session,omitempty"`
}

var _ bun.BeforeCreateTableHook = (*Booking)(nil)

func (*Booking) BeforeCreateTable(_ context.Context, query *bun.CreateTableQuery) error {
	query.ForeignKey(`("session_id") REFERENCES "study_sessions" ("id") ON DELETE CASCADE`)
	return nil
}
