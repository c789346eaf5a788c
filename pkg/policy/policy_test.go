package policy

import (
	"testing"

	"github.com/bookstore-app/store/pkg/models"
	"github.com/stretchr/testify/assert"
)

func principal(id int, staff bool) models.Principal {
	return models.PrincipalForUser(&models.User{ID: id, IsStaff: staff})
}

func ownedBy(id int) *models.Book {
	return &models.Book{ID: 1, OwnerID: &id}
}

func TestCanModify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		principal models.Principal
		book      *models.Book
		expected  bool
	}{
		{"staff on someone else's book", principal(1, true), ownedBy(2), true},
		{"staff on unowned book", principal(1, true), &models.Book{ID: 1}, true},
		{"owner", principal(2, false), ownedBy(2), true},
		{"other user", principal(3, false), ownedBy(2), false},
		{"other user on unowned book", principal(3, false), &models.Book{ID: 1}, false},
		{"anonymous", models.Principal{}, ownedBy(2), false},
		{"anonymous on unowned book", models.Principal{}, &models.Book{ID: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, CanModify(tt.principal, tt.book))
		})
	}
}

func TestCanCreate(t *testing.T) {
	t.Parallel()

	assert.True(t, CanCreate(principal(1, false)))
	assert.True(t, CanCreate(principal(1, true)))
	assert.False(t, CanCreate(models.Principal{}))
}
