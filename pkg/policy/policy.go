// Package policy decides which principals may change which books.
package policy

import "github.com/bookstore-app/store/pkg/models"

// CanCreate reports whether the principal may create books. Any signed-in
// user may.
func CanCreate(p models.Principal) bool {
	return p.IsAuthenticated()
}

// CanModify reports whether the principal may update or delete the book. Staff
// may change anything; everyone else only the books they own. Unowned books are
// staff-only.
func CanModify(p models.Principal, book *models.Book) bool {
	if p.IsStaff {
		return true
	}
	if !p.IsAuthenticated() || book == nil || book.OwnerID == nil {
		return false
	}
	return *book.OwnerID == *p.UserID
}
