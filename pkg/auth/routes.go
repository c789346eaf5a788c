package auth

import (
	"github.com/bookstore-app/store/pkg/ratelimit"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all auth routes. Login and setup attempts go
// through loginLimiter.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string, loginLimiter *ratelimit.KeyedRateLimiter) *Service {
	authService := NewService(db, jwtSecret)
	authMiddleware := NewMiddleware(authService)

	h := &handler{
		authService: authService,
	}

	auth := e.Group("/auth")
	auth.POST("/login", h.login, loginLimiter.Middleware)
	auth.POST("/logout", h.logout)
	auth.GET("/status", h.status)
	auth.POST("/setup", h.setup, loginLimiter.Middleware)
	auth.GET("/me", h.me, authMiddleware.Authenticate)

	return authService
}
