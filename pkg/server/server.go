package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bookstore-app/store/pkg/auth"
	"github.com/bookstore-app/store/pkg/binder"
	"github.com/bookstore-app/store/pkg/books"
	"github.com/bookstore-app/store/pkg/config"
	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/bookstore-app/store/pkg/ratelimit"
	"github.com/bookstore-app/store/pkg/relations"
	"github.com/bookstore-app/store/pkg/testutils"
	"github.com/bookstore-app/store/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	loginLimiter := ratelimit.New(cfg.LoginRateLimitPerSecond, cfg.LoginRateLimitBurst)
	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret, loginLimiter)
	authMiddleware := auth.NewMiddleware(authService)

	users.RegisterRoutes(e, db, authMiddleware)
	books.RegisterRoutesWithGroup(e.Group("/books"), db, authMiddleware)
	relations.RegisterRoutesWithGroup(e.Group("/relations"), db, authMiddleware)

	if cfg.Environment == "test" {
		testutils.RegisterRoutes(e, db, authService)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}
	srv.RegisterOnShutdown(loginLimiter.Stop)

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
