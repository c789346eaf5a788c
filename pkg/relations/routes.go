package relations

import (
	"github.com/bookstore-app/store/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the caller's relation routes on a
// pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	relationService := NewService(db)

	h := &handler{
		relationService: relationService,
	}

	g.Use(authMiddleware.AuthenticateOptional)

	g.GET("", h.list)
	g.GET("/:book_id", h.retrieve)
	g.PATCH("/:book_id", h.update)

	return relationService
}
