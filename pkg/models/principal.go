package models

// Principal is the actor issuing a request. The zero value is an anonymous
// principal.
type Principal struct {
	UserID   *int
	Username string
	IsStaff  bool
}

// PrincipalForUser builds the principal acting on behalf of the given user. A
// nil user yields the anonymous principal.
func PrincipalForUser(u *User) Principal {
	if u == nil {
		return Principal{}
	}
	id := u.ID
	return Principal{
		UserID:   &id,
		Username: u.Username,
		IsStaff:  u.IsStaff,
	}
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID != nil
}
