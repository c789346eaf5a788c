package auth

type LoginPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

type SetupPayload struct {
	Username  string `json:"username" mod:"trim" validate:"required,min=3,max=150"`
	FirstName string `json:"first_name" mod:"trim" validate:"max=150"`
	LastName  string `json:"last_name" mod:"trim" validate:"max=150"`
	Email     string `json:"email" mod:"trim" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type StatusResponse struct {
	NeedsSetup bool `json:"needs_setup"`
}

type MeResponse struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	IsStaff   bool   `json:"is_staff"`
}
