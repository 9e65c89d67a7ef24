package session

import (
	"time"

	"tutoring-service/internal/review"
	"tutoring-service/internal/user"

	"github.com/uptrace/bun"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type StudySession struct {
	bun.BaseModel `bun:"table:study_sessions,alias:s"`

	ID                    string    `bun:"id,pk,type:uuid" json:"id"`
	Title                 string    `bun:"title,notnull" json:"title"`
	Description           string    `bun:"description" json:"description"`
	Category              string    `bun:"category" json:"category"`
	ImageURL              string    `bun:"image_url" json:"imageUrl"`
	Duration              string    `bun:"duration" json:"duration"`
	TutorName             string    `bun:"tutor_name,notnull" json:"tutorName"`
	TutorEmail            string    `bun:"tutor_email,notnull" json:"tutorEmail"`
	RegistrationStartDate time.Time `bun:"registration_start_date,notnull" json:"registrationStartDate"`
	RegistrationEndDate   time.Time `bun:"registration_end_date,notnull" json:"registrationEndDate"`
	ClassStartDate        time.Time `bun:"class_start_date,notnull" json:"classStartDate"`
	ClassEndDate          time.Time `bun:"class_end_date,notnull" json:"classEndDate"`
	Fee                   float64   `bun:"fee,type:numeric(10,2),notnull" json:"fee"`
	Status                Status    `bun:"status,notnull" json:"status"`
	RejectionReason       string    `bun:"rejection_reason" json:"rejectionReason,omitempty"`
	Feedback              string    `bun:"feedback" json:"feedback,omitempty"`
	CreatedAt             time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt             time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// CreateRequest is what a tutor may set. Status and tutor identity are not accepted.
type CreateRequest struct {
	Title                 string    `json:"title" validate:"required,max=200"`
	Description           string    `json:"description" validate:"max=5000"`
	Category              string    `json:"category" validate:"max=100"`
	ImageURL              string    `json:"imageUrl" validate:"omitempty,url"`
	Duration              string    `json:"duration" validate:"max=100"`
	RegistrationStartDate time.Time `json:"registrationStartDate" validate:"required"`
	RegistrationEndDate   time.Time `json:"registrationEndDate" validate:"required,gtefield=RegistrationStartDate"`
	ClassStartDate        time.Time `json:"classStartDate" validate:"required"`
	ClassEndDate          time.Time `json:"classEndDate" validate:"required,gtefield=ClassStartDate"`
	Fee                   float64   `json:"fee" validate:"gte=0"`
}

// StatusUpdate is applied as a single UPDATE. Nil fields are left untouched.
type StatusUpdate struct {
	Status          Status   `json:"status" validate:"required,oneof=pending approved rejected"`
	Fee             *float64 `json:"fee" validate:"omitempty,gte=0"`
	RejectionReason *string  `json:"rejectionReason" validate:"omitempty,max=1000"`
	Feedback        *string  `json:"feedback" validate:"omitempty,max=1000"`
}

const (
	SortNewest  = ""
	SortFeeAsc  = "fee_asc"
	SortFeeDesc = "fee_desc"
)

type ListQuery struct {
	Page     int
	Limit    int
	Sort     string
	Category string
	Status   Status
}

type ListResponse struct {
	Sessions   []StudySession `json:"sessions"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

type Detail struct {
	Session       *StudySession      `json:"session"`
	Reviews       []review.Review    `json:"reviews"`
	Tutor         user.PublicProfile `json:"tutor"`
	AverageRating float64            `json:"averageRating"`
}

type DeleteResponse struct {
	Message          string `json:"message"`
	DeletedMaterials int    `json:"deletedMaterials"`
}
