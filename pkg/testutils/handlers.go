package testutils

import (
	"context"
	"net/http"
	"time"

	"github.com/bookstore-app/store/pkg/auth"
	"github.com/bookstore-app/store/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db          *bun.DB
	authService *auth.Service
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	IsStaff   bool   `json:"is_staff"`
}

// createUserResponse is the response body for creating a test user.
type createUserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// createUser creates an active test user and returns a session token for it.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		IsStaff:      req.IsStaff,
		IsActive:     true,
	}

	_, err = h.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusCreated, createUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Token:    token,
	})
}

// resetResponse is the response body for wiping the catalog.
type resetResponse struct {
	Relations int `json:"relations"`
	Books     int `json:"books"`
	Users     int `json:"users"`
}

// reset deletes every relation, book and user.
// DELETE /test/data.
func (h *handler) reset(c echo.Context) error {
	ctx := c.Request().Context()
	resp := resetResponse{}

	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		counts := []*int{&resp.Relations, &resp.Books, &resp.Users}
		tables := []interface{}{
			(*models.UserBookRelation)(nil),
			(*models.Book)(nil),
			(*models.User)(nil),
		}
		for i, model := range tables {
			result, err := tx.NewDelete().Model(model).Where("1=1").Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			deleted, _ := result.RowsAffected()
			*counts[i] = int(deleted)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
