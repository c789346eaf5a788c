package relations

import (
	"net/http"
	"strconv"

	"github.com/bookstore-app/store/pkg/auth"
	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	relationService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	rels, err := h.relationService.ListRelations(ctx, auth.PrincipalFromContext(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, rels))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	rel, err := h.relationService.RetrieveRelation(ctx, auth.PrincipalFromContext(c), bookID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, rel))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("book_id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	principal := auth.PrincipalFromContext(c)
	if !principal.IsAuthenticated() {
		return errcodes.NotAuthenticated()
	}

	// An empty PATCH still creates the relation.
	c.Set("disallow_empty_body", false)
	params := RelationPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := UpsertRelationOptions{
		Like:        params.Like,
		InBookmarks: params.InBookmarks,
	}
	if params.Rate.Set {
		opts.Rate = params.Rate.Value
		opts.ClearRate = params.Rate.Value == nil
	}

	rel, err := h.relationService.UpsertRelation(ctx, principal, bookID, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, rel))
}
