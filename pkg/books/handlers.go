package books

import (
	"net/http"
	"strconv"

	"github.com/bookstore-app/store/pkg/auth"
	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/bookstore-app/store/pkg/models"
	"github.com/bookstore-app/store/pkg/policy"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	bookService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListBooksOptions{
		Search:   params.Search,
		Ordering: params.Ordering,
	}
	if params.Price != nil {
		price, err := parsePrice(*params.Price)
		if err != nil {
			return err
		}
		opts.Price = &price
	}

	books, err := h.bookService.ListBooks(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, books))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	principal := auth.PrincipalFromContext(c)
	if !policy.CanCreate(principal) {
		return errcodes.NotAuthenticated()
	}

	params := BookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	price, err := parsePrice(string(params.Price))
	if err != nil {
		return err
	}

	book, err := h.bookService.CreateBook(ctx, principal, CreateBookOptions{
		Name:       params.Name,
		Price:      price,
		AuthorName: params.AuthorName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	principal := auth.PrincipalFromContext(c)
	if err := h.bookService.AuthorizeModify(ctx, principal, id); err != nil {
		return errors.WithStack(err)
	}

	params := BookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	price, err := parsePrice(string(params.Price))
	if err != nil {
		return err
	}

	book, err := h.bookService.UpdateBook(ctx, principal, id, UpdateBookOptions{
		Name:       params.Name,
		Price:      price,
		AuthorName: params.AuthorName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	err = h.bookService.DeleteBook(ctx, auth.PrincipalFromContext(c), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func parsePrice(s string) (models.Price, error) {
	price, err := models.ParsePrice(s)
	if err != nil {
		var decErr *models.DecimalError
		if errors.As(err, &decErr) {
			return 0, errcodes.FieldValidationError("price", decErr.Message)
		}
		return 0, errors.WithStack(err)
	}
	return price, nil
}
