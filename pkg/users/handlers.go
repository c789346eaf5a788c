package users

import (
	"net/http"
	"strconv"

	"github.com/bookstore-app/store/pkg/auth"
	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/bookstore-app/store/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	userService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Create(ctx, CreateUserOptions(params))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, user))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	user, err := h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListUsersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	users, total, err := h.userService.List(ctx, ListOptions(params))
	if err != nil {
		return err
	}

	resp := struct {
		Users []*models.User `json:"users"`
		Total int            `json:"total"`
	}{users, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	params := UpdateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	current := auth.UserFromContext(c)
	if current != nil && current.ID == id && ((params.IsStaff != nil && !*params.IsStaff) || (params.IsActive != nil && !*params.IsActive)) {
		return errcodes.ValidationError("You cannot revoke your own staff status or deactivate your own account")
	}

	opts := UpdateOptions{Columns: []string{}}

	if params.Username != nil && *params.Username != user.Username {
		user.Username = *params.Username
		opts.Columns = append(opts.Columns, "username")
	}
	if params.FirstName != nil && *params.FirstName != user.FirstName {
		user.FirstName = *params.FirstName
		opts.Columns = append(opts.Columns, "first_name")
	}
	if params.LastName != nil && *params.LastName != user.LastName {
		user.LastName = *params.LastName
		opts.Columns = append(opts.Columns, "last_name")
	}
	if params.Email != nil && *params.Email != user.Email {
		user.Email = *params.Email
		opts.Columns = append(opts.Columns, "email")
	}
	if params.IsStaff != nil && *params.IsStaff != user.IsStaff {
		user.IsStaff = *params.IsStaff
		opts.Columns = append(opts.Columns, "is_staff")
	}
	if params.IsActive != nil && *params.IsActive != user.IsActive {
		user.IsActive = *params.IsActive
		opts.Columns = append(opts.Columns, "is_active")
	}

	err = h.userService.Update(ctx, user, opts)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

// resetPassword lets users change their own password, given the current one,
// and staff reset anyone's.
func (h *handler) resetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	params := ResetPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	current := auth.UserFromContext(c)
	if current == nil {
		return errcodes.Unauthorized("Authentication required")
	}

	if current.ID == id {
		if params.CurrentPassword == nil || *params.CurrentPassword == "" {
			return errcodes.FieldValidationError("current_password", "This field is required.")
		}
		valid, err := h.userService.VerifyPassword(ctx, id, *params.CurrentPassword)
		if err != nil {
			return err
		}
		if !valid {
			return errcodes.FieldValidationError("current_password", "Current password is incorrect.")
		}
	} else {
		if !current.IsStaff {
			return errcodes.Forbidden("Resetting another user's password")
		}
		if _, err := h.userService.Retrieve(ctx, id); err != nil {
			return err
		}
	}

	err = h.userService.ResetPassword(ctx, id, params.NewPassword)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Password reset successfully"}))
}

func (h *handler) deactivate(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	if current := auth.UserFromContext(c); current != nil && current.ID == id {
		return errcodes.ValidationError("You cannot deactivate your own account")
	}

	err = h.userService.Deactivate(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
