package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserBookRelation_String(t *testing.T) {
	t.Parallel()

	rate := 3
	rel := &UserBookRelation{
		User: &User{Username: "test_user"},
		Book: &Book{Name: "Test book"},
		Rate: &rate,
	}
	assert.Equal(t, "test_user: Test book, RATE: 3", rel.String())

	rel.Rate = nil
	assert.Equal(t, "test_user: Test book, RATE: None", rel.String())
}

func TestPrincipalForUser(t *testing.T) {
	t.Parallel()

	anon := PrincipalForUser(nil)
	assert.False(t, anon.IsAuthenticated())
	assert.False(t, anon.IsStaff)

	p := PrincipalForUser(&User{ID: 7, Username: "alice", IsStaff: true})
	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, 7, *p.UserID)
	assert.Equal(t, "alice", p.Username)
	assert.True(t, p.IsStaff)
}
