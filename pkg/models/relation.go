package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// Bounds for UserBookRelation.Rate.
const (
	RateMin = 1
	RateMax = 5
)

// UserBookRelation is a user's like/bookmark/rate state for one book. There is
// at most one row per (user, book) pair.
type UserBookRelation struct {
	bun.BaseModel `bun:"table:user_book_relations,alias:ubr"`

	ID          int       `bun:",pk,nullzero" json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
	UserID      int       `json:"-"`
	User        *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	BookID      int       `json:"book"`
	Book        *Book     `bun:"rel:belongs-to,join:book_id=id" json:"-"`
	Like        bool      `bun:"liked" json:"like"`
	InBookmarks bool      `json:"in_bookmarks"`
	Rate        *int      `json:"rate"`
}

// String renders the relation the way the admin listing shows it, e.g.
// "alice: Dune, RATE: 5". User and Book must be loaded.
func (r *UserBookRelation) String() string {
	rate := "None"
	if r.Rate != nil {
		rate = strconv.Itoa(*r.Rate)
	}
	username, book := "", ""
	if r.User != nil {
		username = r.User.Username
	}
	if r.Book != nil {
		book = r.Book.String()
	}
	return fmt.Sprintf("%s: %s, RATE: %s", username, book, rate)
}
