package books

import (
	"github.com/bookstore-app/store/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
// Reads are open to everyone; writes are authorized per book.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
	}

	g.Use(authMiddleware.AuthenticateOptional)

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)

	return bookService
}
