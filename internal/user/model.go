package user

import (
	"time"

	"github.com/uptrace/bun"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"`
	Role      Role      `bun:"role,notnull" json:"role"`
	Photo     string    `bun:"photo" json:"photo"`
	Phone     string    `bun:"phone" json:"phone"`
	Address   string    `bun:"address" json:"address"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// PublicProfile is what other users may see about someone.
type PublicProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{Name: u.Name, Email: u.Email, Photo: u.Photo}
}

// ProfileUpdate carries the self-editable fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
	Photo   *string `json:"photo" validate:"omitempty,max=2048"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Address *string `json:"address" validate:"omitempty,max=255"`
}

func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Photo == nil && p.Phone == nil && p.Address == nil
}

type SearchFilter struct {
	Search string
	Role   Role
	Page   int
	Limit  int
}

type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=student tutor admin"`
}
