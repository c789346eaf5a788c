package users

type CreateUserPayload struct {
	Username  string `json:"username" mod:"trim" validate:"required,min=3,max=150"`
	FirstName string `json:"first_name" mod:"trim" validate:"max=150"`
	LastName  string `json:"last_name" mod:"trim" validate:"max=150"`
	Email     string `json:"email" mod:"trim" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=8"`
	IsStaff   bool   `json:"is_staff"`
}

type UpdateUserPayload struct {
	Username  *string `json:"username" mod:"trim" validate:"omitempty,min=3,max=150"`
	FirstName *string `json:"first_name" mod:"trim" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" mod:"trim" validate:"omitempty,max=150"`
	Email     *string `json:"email" mod:"trim" validate:"omitempty,email"`
	IsStaff   *bool   `json:"is_staff"`
	IsActive  *bool   `json:"is_active"`
}

type ResetPasswordPayload struct {
	CurrentPassword *string `json:"current_password"`
	NewPassword     string  `json:"new_password" validate:"required,min=8"`
}

type ListUsersQuery struct {
	Limit  int     `query:"limit" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" validate:"min=0"`
	Search *string `query:"search"`
}
