package books

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/bookstore-app/store/pkg/models"
	"github.com/bookstore-app/store/pkg/policy"
	"github.com/bookstore-app/store/pkg/ratings"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Orderings accepted by ListBooks.
const (
	OrderAuthorNameAsc  = "author_name"
	OrderAuthorNameDesc = "-author_name"
	OrderPriceAsc       = "price"
	OrderPriceDesc      = "-price"
)

var orderClauses = map[string]string{
	OrderAuthorNameAsc:  "b.author_name ASC",
	OrderAuthorNameDesc: "b.author_name DESC",
	OrderPriceAsc:       "b.price ASC",
	OrderPriceDesc:      "b.price DESC",
}

type ListBooksOptions struct {
	Price    *models.Price
	Search   *string
	Ordering *string
}

type CreateBookOptions struct {
	Name       string
	Price      models.Price
	AuthorName string
}

// UpdateBookOptions replaces every writable field of a book.
type UpdateBookOptions struct {
	Name       string
	Price      models.Price
	AuthorName string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// ListBooks returns the books matching opts, each annotated with its
// aggregate, owner name and readers. Relations for the whole page are loaded
// with a single query.
func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*BookView, error) {
	books := []*models.Book{}
	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Owner")

	if opts.Price != nil {
		q = q.Where("b.price = ?", int64(*opts.Price))
	}
	if opts.Ordering != nil && *opts.Ordering != "" {
		clause, ok := orderClauses[*opts.Ordering]
		if !ok {
			return nil, errcodes.FieldValidationError("ordering", "Unknown ordering.")
		}
		q = q.OrderExpr(clause)
	}
	q = q.Order("b.id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	if opts.Search != nil {
		books = filterBySearch(books, *opts.Search)
	}

	return svc.annotate(ctx, svc.db, books)
}

// RetrieveBook returns one annotated book.
func (svc *Service) RetrieveBook(ctx context.Context, id int) (*BookView, error) {
	book, err := retrieveBook(ctx, svc.db, id)
	if err != nil {
		return nil, err
	}
	views, err := svc.annotate(ctx, svc.db, []*models.Book{book})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// CreateBook stores a new book owned by the principal.
func (svc *Service) CreateBook(ctx context.Context, principal models.Principal, opts CreateBookOptions) (*BookView, error) {
	if !policy.CanCreate(principal) {
		return nil, errcodes.NotAuthenticated()
	}
	if err := validateFields(opts.Name, opts.Price, opts.AuthorName); err != nil {
		return nil, err
	}

	now := time.Now()
	book := &models.Book{
		CreatedAt:  now,
		UpdatedAt:  now,
		Name:       opts.Name,
		Price:      opts.Price,
		AuthorName: opts.AuthorName,
		OwnerID:    principal.UserID,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewInsert().
			Model(book).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("book created", logger.Data{"book_id": book.ID, "owner_id": *principal.UserID})

	return svc.RetrieveBook(ctx, book.ID)
}

// AuthorizeModify checks that the book exists and that the principal may
// change it.
func (svc *Service) AuthorizeModify(ctx context.Context, principal models.Principal, id int) error {
	book, err := retrieveBook(ctx, svc.db, id)
	if err != nil {
		return err
	}
	return authorize(principal, book)
}

// UpdateBook replaces the book's fields. Nothing is written unless the
// principal may modify the book and every field is valid.
func (svc *Service) UpdateBook(ctx context.Context, principal models.Principal, id int, opts UpdateBookOptions) (*BookView, error) {
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		book, err := retrieveBook(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authorize(principal, book); err != nil {
			return err
		}
		if err := validateFields(opts.Name, opts.Price, opts.AuthorName); err != nil {
			return err
		}

		book.Name = opts.Name
		book.Price = opts.Price
		book.AuthorName = opts.AuthorName
		book.UpdatedAt = time.Now()
		_, err = tx.
			NewUpdate().
			Model(book).
			Column("name", "price", "author_name", "updated_at").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return svc.RetrieveBook(ctx, id)
}

// DeleteBook removes the book and every relation to it.
func (svc *Service) DeleteBook(ctx context.Context, principal models.Principal, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		book, err := retrieveBook(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authorize(principal, book); err != nil {
			return err
		}

		_, err = tx.
			NewDelete().
			Model((*models.UserBookRelation)(nil)).
			Where("book_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.
			NewDelete().
			Model(book).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		logger.FromContext(ctx).Info("book deleted", logger.Data{"book_id": id})
		return nil
	})
}

// annotate builds views for books, loading all of their relations at once.
func (svc *Service) annotate(ctx context.Context, db bun.IDB, books []*models.Book) ([]*BookView, error) {
	views := make([]*BookView, 0, len(books))
	if len(books) == 0 {
		return views, nil
	}

	ids := make([]int, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}

	relations := []*models.UserBookRelation{}
	err := db.
		NewSelect().
		Model(&relations).
		Relation("User").
		Where("ubr.book_id IN (?)", bun.In(ids)).
		Order("ubr.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	aggregates := ratings.ComputeByBook(relations)
	readers := make(map[int][]Reader, len(books))
	for _, r := range relations {
		if r.User == nil {
			continue
		}
		readers[r.BookID] = append(readers[r.BookID], readerFor(r.User))
	}

	for _, b := range books {
		views = append(views, newBookView(b, ratings.Lookup(aggregates, b.ID), readers[b.ID]))
	}
	return views, nil
}

// filterBySearch keeps the books where every whitespace-separated term occurs
// in the name or the author name, ignoring case. SQLite's LOWER only folds
// ASCII, so the match runs here to cover Cyrillic and accented names.
func filterBySearch(books []*models.Book, search string) []*models.Book {
	terms := strings.Fields(strings.ToLower(search))
	if len(terms) == 0 {
		return books
	}

	matched := books[:0]
	for _, b := range books {
		name := strings.ToLower(b.Name)
		author := strings.ToLower(b.AuthorName)
		ok := true
		for _, term := range terms {
			if !strings.Contains(name, term) && !strings.Contains(author, term) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, b)
		}
	}
	return matched
}

func retrieveBook(ctx context.Context, db bun.IDB, id int) (*models.Book, error) {
	book := &models.Book{}
	err := db.
		NewSelect().
		Model(book).
		Relation("Owner").
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

func authorize(principal models.Principal, book *models.Book) error {
	if policy.CanModify(principal, book) {
		return nil
	}
	if !principal.IsAuthenticated() {
		return errcodes.NotAuthenticated()
	}
	return errcodes.Forbidden("Modifying this book")
}

func validateFields(name string, price models.Price, authorName string) error {
	if strings.TrimSpace(name) == "" {
		return errcodes.FieldValidationError("name", "This field may not be blank.")
	}
	if utf8.RuneCountInString(name) > models.BookNameMaxLength {
		return errcodes.FieldValidationError("name", "Ensure this field has no more than 255 characters.")
	}
	if utf8.RuneCountInString(authorName) > models.BookAuthorNameMaxLength {
		return errcodes.FieldValidationError("author_name", "Ensure this field has no more than 255 characters.")
	}
	if err := price.Validate(); err != nil {
		return errcodes.FieldValidationError("price", err.Error())
	}
	return nil
}
