package books

import (
	"github.com/bookstore-app/store/pkg/models"
	"github.com/bookstore-app/store/pkg/ratings"
)

// BookView is a book as the API returns it: stored fields plus values derived
// from its owner and relations.
type BookView struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	Price      models.Price   `json:"price"`
	AuthorName string         `json:"author_name"`
	LikesCount int            `json:"likes_count"`
	Rating     *models.Rating `json:"rating"`
	OwnerName  *string        `json:"owner_name"`
	Readers    []Reader       `json:"readers"`
}

// Reader is a user holding any relation to a book.
type Reader struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func readerFor(u *models.User) Reader {
	return Reader{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

func newBookView(b *models.Book, agg ratings.Aggregate, readers []Reader) *BookView {
	view := &BookView{
		ID:         b.ID,
		Name:       b.Name,
		Price:      b.Price,
		AuthorName: b.AuthorName,
		LikesCount: agg.LikesCount,
		Rating:     agg.Rating,
		Readers:    readers,
	}
	if view.Readers == nil {
		view.Readers = []Reader{}
	}
	if b.OwnerID != nil && b.Owner != nil {
		name := b.Owner.DisplayName()
		view.OwnerName = &name
	}
	return view
}
