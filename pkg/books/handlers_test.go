package books

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/bookstore-app/store/pkg/auth"
	"github.com/bookstore-app/store/pkg/binder"
	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/bookstore-app/store/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupTestServer(t *testing.T, db *bun.DB) *echo.Echo {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	authMiddleware := auth.NewMiddleware(auth.NewService(db, "test-secret"))
	RegisterRoutesWithGroup(e.Group("/books"), db, authMiddleware)
	return e
}

// userContextHandler injects the user into the echo context before routing.
type userContextHandler struct {
	echo *echo.Echo
	user *models.User
}

func (h *userContextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := h.echo.NewContext(r, w)
	if h.user != nil {
		c.Set("user", h.user)
	}

	h.echo.Router().Find(r.Method, r.URL.Path, c)
	handler := c.Handler()
	if handler == nil {
		h.echo.ServeHTTP(w, r)
		return
	}

	if err := handler(c); err != nil {
		h.echo.HTTPErrorHandler(err, c)
	}
}

func executeRequestWithUser(t *testing.T, e *echo.Echo, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()

	rr := httptest.NewRecorder()
	handler := &userContextHandler{echo: e, user: user}
	handler.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(method, target, payload string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeBooks(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func countBooks(t *testing.T, db *bun.DB) int {
	t.Helper()
	count, err := db.NewSelect().Model((*models.Book)(nil)).Count(context.Background())
	require.NoError(t, err)
	return count
}

func TestHandler_List(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)
	seedCatalog(t, db)

	rr := executeRequestWithUser(t, e, httptest.NewRequest(http.MethodGet, "/books", nil), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	books := decodeBooks(t, rr)
	require.Len(t, books, 3)
	assert.Equal(t, "First one", books[0]["name"])
	assert.Equal(t, "10.99", books[0]["price"])
	assert.Equal(t, "Li", books[0]["author_name"])
	assert.InDelta(t, 0, books[0]["likes_count"], 0)
	assert.Nil(t, books[0]["rating"])
	assert.Nil(t, books[0]["owner_name"])
	assert.Equal(t, []interface{}{}, books[0]["readers"])
}

func TestHandler_List_Filters(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)
	seedCatalog(t, db)

	tests := []struct {
		query    string
		expected []string
	}{
		{"price=39.99", []string{"Second book"}},
		{"price=39.990", nil},
		{"search=John", []string{"Second book", "Ho was John"}},
		{"ordering=author_name", []string{"Second book", "First one", "Ho was John"}},
		{"ordering=-author_name", []string{"Ho was John", "First one", "Second book"}},
		{"ordering=price", []string{"First one", "Ho was John", "Second book"}},
		{"ordering=-price", []string{"Second book", "Ho was John", "First one"}},
		{"search=john&ordering=price", []string{"Ho was John", "Second book"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := executeRequestWithUser(t, e, httptest.NewRequest(http.MethodGet, "/books?"+tt.query, nil), nil)
			if tt.expected == nil {
				assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
				return
			}
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			names := []string{}
			for _, b := range decodeBooks(t, rr) {
				names = append(names, b["name"].(string))
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestHandler_List_SearchCyrillic(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)
	seedCatalog(t, db)
	createBook(t, db, "Война и мир", "12.00", "Толстой", nil)

	rr := executeRequestWithUser(t, e, httptest.NewRequest(http.MethodGet, "/books?search="+url.QueryEscape("ТОЛСТОЙ"), nil), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	books := decodeBooks(t, rr)
	require.Len(t, books, 1)
	assert.Equal(t, "Война и мир", books[0]["name"])
	assert.Equal(t, "Толстой", books[0]["author_name"])
}

func TestHandler_List_RejectsBadQuery(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)

	rr := executeRequestWithUser(t, e, httptest.NewRequest(http.MethodGet, "/books?ordering=name", nil), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = executeRequestWithUser(t, e, httptest.NewRequest(http.MethodGet, "/books?price=abc", nil), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "A valid number is required.")

	rr = executeRequestWithUser(t, e, httptest.NewRequest(http.MethodGet, "/books?page=2", nil), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown_parameter")
}

func TestHandler_Retrieve(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)
	owner := createUser(t, db, "owner", false)
	u1 := createUser(t, db, "u1", false)
	u2 := createUser(t, db, "u2", false)
	book := createBook(t, db, "Rated", "25.00", "A", owner)
	addRelation(t, db, u1, book, true, rate(5))
	addRelation(t, db, u2, book, true, rate(4))

	rr := executeRequestWithUser(t, e, httptest.NewRequest(http.MethodGet, "/books/"+strconv.Itoa(book.ID), nil), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"id": `+strconv.Itoa(book.ID)+`,
		"name": "Rated",
		"price": "25.00",
		"author_name": "A",
		"likes_count": 2,
		"rating": "4.50",
		"owner_name": "owner",
		"readers": [
			{"first_name": "u1-first", "last_name": "u1-last", "email": "u1@example.com"},
			{"first_name": "u2-first", "last_name": "u2-last", "email": "u2@example.com"}
		]
	}`, rr.Body.String())

	rr = executeRequestWithUser(t, e, httptest.NewRequest(http.MethodGet, "/books/9999", nil), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = executeRequestWithUser(t, e, httptest.NewRequest(http.MethodGet, "/books/abc", nil), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Create(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)
	alice := createUser(t, db, "alice", false)

	rr := executeRequestWithUser(t, e, jsonRequest(http.MethodPost, "/books", `{"name":"Programming in Go","price":"150.00","author_name":"Gopher"}`), alice)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "150.00", view["price"])
	assert.Equal(t, "alice", view["owner_name"])

	rr = executeRequestWithUser(t, e, jsonRequest(http.MethodPost, "/books", `{"name":"Numeric price","price":9.5}`), alice)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "9.50", view["price"])
	assert.Equal(t, "", view["author_name"])

	rr = executeRequestWithUser(t, e, jsonRequest(http.MethodPost, "/books", `{"name":"Exponent price","price":1e2}`), alice)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "100.00", view["price"])

	assert.Equal(t, 3, countBooks(t, db))
}

func TestHandler_Create_IgnoresOwnerFromClient(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)
	alice := createUser(t, db, "alice", false)

	rr := executeRequestWithUser(t, e, jsonRequest(http.MethodPost, "/books", `{"name":"x","price":"1.00","owner":2}`), alice)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 0, countBooks(t, db))
}

func TestHandler_Create_TooManyDigits(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)
	alice := createUser(t, db, "alice", false)

	rr := executeRequestWithUser(t, e, jsonRequest(http.MethodPost, "/books", `{"name":"Programming in Go","price":"123456789.99","author_name":"Gopher"}`), alice)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Ensure that there are no more than 7 digits in total.")
	assert.Equal(t, 0, countBooks(t, db))
}

func TestHandler_Create_Anonymous(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)

	rr := executeRequestWithUser(t, e, jsonRequest(http.MethodPost, "/books", `{"name":"x","price":"1.00"}`), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_authenticated")
	assert.Equal(t, 0, countBooks(t, db))
}

func TestHandler_BadTokenRejected(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)
	seedCatalog(t, db)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/books", nil),
		jsonRequest(http.MethodPost, "/books", `{"name":"x","price":"1.00"}`),
	} {
		req.Header.Set(echo.HeaderAuthorization, "Bearer expired.or.forged")
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, req.Method)
		assert.Contains(t, rr.Body.String(), "Invalid or expired token")
	}
	assert.Equal(t, 3, countBooks(t, db))
}

func TestHandler_Update(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)
	owner := createUser(t, db, "owner", false)
	other := createUser(t, db, "other", false)
	staff := createUser(t, db, "staff", true)
	book := createBook(t, db, "Mine", "25.00", "A", owner)
	path := "/books/" + strconv.Itoa(book.ID)
	payload := `{"name":"Mine","price":"15.00","author_name":"A"}`

	rr := executeRequestWithUser(t, e, jsonRequest(http.MethodPut, path, payload), other)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	view, err := NewService(db).RetrieveBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", view.Price.String())

	rr = executeRequestWithUser(t, e, jsonRequest(http.MethodPut, path, `{"name":"Mine","price":"not-a-price"}`), other)
	assert.Equal(t, http.StatusForbidden, rr.Code, "permission is checked before the payload")

	rr = executeRequestWithUser(t, e, jsonRequest(http.MethodPut, path, payload), owner)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"price":"15.00"`)

	rr = executeRequestWithUser(t, e, jsonRequest(http.MethodPut, path, `{"name":"Staff edit","price":"1.00"}`), staff)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"owner_name":"owner"`)

	rr = executeRequestWithUser(t, e, jsonRequest(http.MethodPut, "/books/9999", payload), staff)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = executeRequestWithUser(t, e, jsonRequest(http.MethodPut, path, `{"price":"1.00"}`), owner)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `\"name\" is required`)
}

func TestHandler_Delete(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	e := setupTestServer(t, db)
	owner := createUser(t, db, "owner", false)
	other := createUser(t, db, "other", false)
	book := createBook(t, db, "Mine", "25.00", "A", owner)
	path := "/books/" + strconv.Itoa(book.ID)

	rr := executeRequestWithUser(t, e, httptest.NewRequest(http.MethodDelete, path, nil), other)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 1, countBooks(t, db))

	rr = executeRequestWithUser(t, e, httptest.NewRequest(http.MethodDelete, path, nil), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 1, countBooks(t, db))

	rr = executeRequestWithUser(t, e, httptest.NewRequest(http.MethodDelete, path, nil), owner)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, 0, countBooks(t, db))
}
