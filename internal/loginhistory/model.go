package loginhistory

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EventRegister    = "register"
	EventSocialLogin = "social-login"
	EventLogin       = "login"
)

type Entry struct {
	bun.BaseModel `bun:"table:login_history,alias:lh"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Email     string    `bun:"email,notnull" json:"email"`
	Name      string    `bun:"name" json:"name"`
	Event     string    `bun:"event,notnull" json:"event"`
	IPAddress string    `bun:"ip_address" json:"ipAddress"`
	UserAgent string    `bun:"user_agent" json:"userAgent"`
	LoggedAt  time.Time `bun:"logged_at,nullzero,notnull,default:current_timestamp" json:"loggedAt"`
}

type Filter struct {
	Email string
	Event string
	From  *time.Time
	To    *time.Time
	Page  int
	Limit int
}
