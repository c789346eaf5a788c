package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Field limits for books.
const (
	BookNameMaxLength       = 255
	BookAuthorNameMaxLength = 255
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Name       string    `json:"name"`
	Price      Price     `json:"price"`
	AuthorName string    `json:"author_name"`
	OwnerID    *int      `json:"owner_id"`
	Owner      *User     `bun:"rel:belongs-to,join:owner_id=id" json:"owner,omitempty"`
}

func (b *Book) String() string {
	return b.Name
}
