package testutils

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bookstore-app/store/pkg/auth"
	"github.com/bookstore-app/store/pkg/binder"
	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/bookstore-app/store/pkg/migrations"
	"github.com/bookstore-app/store/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setup(t *testing.T) (*echo.Echo, *bun.DB, *auth.Service) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	authService := auth.NewService(db, "test-secret")
	RegisterRoutes(e, db, authService)
	return e, db, authService
}

func TestCreateUserAndReset(t *testing.T) {
	t.Parallel()
	e, db, authService := setup(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodPost, "/test/users", strings.NewReader(`{"username":"tester","password":"password123","is_staff":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createUserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := authService.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID)
	assert.True(t, claims.IsStaff)

	book := &models.Book{Name: "Dune", OwnerID: &resp.ID}
	_, err = db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&models.UserBookRelation{UserID: resp.ID, BookID: book.ID, Like: true}).Exec(ctx)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/test/data", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"relations":1,"books":1,"users":1}`, rec.Body.String())

	count, err := db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
