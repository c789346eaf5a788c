package users

import (
	"github.com/bookstore-app/store/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all user routes. Everything except a user's own
// password reset is staff only.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	userService := NewService(db)

	h := &handler{
		userService: userService,
	}

	users := e.Group("/users")
	users.Use(authMiddleware.Authenticate)

	users.GET("", h.list, authMiddleware.RequireStaff)
	users.GET("/:id", h.retrieve, authMiddleware.RequireStaff)
	users.POST("", h.create, authMiddleware.RequireStaff)
	users.POST("/:id", h.update, authMiddleware.RequireStaff)
	users.DELETE("/:id", h.deactivate, authMiddleware.RequireStaff)
	users.POST("/:id/reset-password", h.resetPassword)

	return userService
}
