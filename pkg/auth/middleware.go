package auth

import (
	"strings"

	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/bookstore-app/store/pkg/models"
	"github.com/labstack/echo/v4"
)

const userContextKey = "user"

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate resolves the session token to an active user and rejects the
// request with 401 when there is none.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := tokenFromRequest(c)
		if token == "" {
			return errcodes.Unauthorized("Authentication required")
		}
		if err := m.setUser(c, token); err != nil {
			return err
		}
		return next(c)
	}
}

// AuthenticateOptional lets requests without a token through as anonymous. A
// token that is present but does not resolve to an active user is rejected
// the same way Authenticate rejects it.
func (m *Middleware) AuthenticateOptional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := tokenFromRequest(c); token != "" {
			if err := m.setUser(c, token); err != nil {
				return err
			}
		}
		return next(c)
	}
}

func (m *Middleware) setUser(c echo.Context, token string) error {
	claims, err := m.authService.ValidateToken(token)
	if err != nil {
		return errcodes.Unauthorized("Invalid or expired token")
	}

	user, err := m.authService.GetUserByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return errcodes.Unauthorized("User not found or inactive")
	}

	c.Set(userContextKey, user)
	return nil
}

// RequireStaff rejects non-staff users. Must be used after Authenticate.
func (m *Middleware) RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(userContextKey).(*models.User)
		if !ok {
			return errcodes.Unauthorized("Authentication required")
		}
		if !user.IsStaff {
			return errcodes.Forbidden("Managing users")
		}
		return next(c)
	}
}

// UserFromContext returns the authenticated user, or nil for anonymous
// requests.
func UserFromContext(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// PrincipalFromContext returns the principal issuing the request.
func PrincipalFromContext(c echo.Context) models.Principal {
	return models.PrincipalForUser(UserFromContext(c))
}

// tokenFromRequest reads the session cookie, falling back to a bearer token.
func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
