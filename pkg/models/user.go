package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `bun:",nullzero" json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash
	IsStaff      bool      `json:"is_staff"`
	IsActive     bool      `json:"is_active"`
}

// DisplayName is the name shown wherever a user is referenced by other
// resources, e.g. as the owner of a book.
func (u *User) DisplayName() string {
	return u.Username
}
