package relations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bookstore-app/store/pkg/database"
	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/bookstore-app/store/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

var errRateRange = errcodes.FieldValidationError("rate",
	fmt.Sprintf("Ensure this value is between %d and %d.", models.RateMin, models.RateMax))

// UpsertRelationOptions holds the fields to change. Nil fields are left as
// they are. ClearRate removes the rating and wins over Rate.
type UpsertRelationOptions struct {
	Like        *bool
	InBookmarks *bool
	Rate        *int
	ClearRate   bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// UpsertRelation creates the principal's relation to the book if it doesn't
// exist yet and applies the given fields to it.
func (svc *Service) UpsertRelation(ctx context.Context, principal models.Principal, bookID int, opts UpsertRelationOptions) (*models.UserBookRelation, error) {
	if !principal.IsAuthenticated() {
		return nil, errcodes.NotAuthenticated()
	}
	if !opts.ClearRate && opts.Rate != nil && (*opts.Rate < models.RateMin || *opts.Rate > models.RateMax) {
		return nil, errRateRange
	}
	userID := *principal.UserID

	var rel *models.UserBookRelation
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := ensureBook(ctx, tx, bookID); err != nil {
			return err
		}

		var err error
		rel, err = getOrCreate(ctx, tx, userID, bookID)
		if err != nil {
			return err
		}

		columns := []string{"updated_at"}
		if opts.Like != nil {
			rel.Like = *opts.Like
			columns = append(columns, "liked")
		}
		if opts.InBookmarks != nil {
			rel.InBookmarks = *opts.InBookmarks
			columns = append(columns, "in_bookmarks")
		}
		switch {
		case opts.ClearRate:
			rel.Rate = nil
			columns = append(columns, "rate")
		case opts.Rate != nil:
			rate := *opts.Rate
			rel.Rate = &rate
			columns = append(columns, "rate")
		}
		rel.UpdatedAt = time.Now()

		_, err = tx.
			NewUpdate().
			Model(rel).
			Column(columns...).
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("relation updated", logger.Data{
		"user_id": userID,
		"book_id": bookID,
		"like":    rel.Like,
	})

	return rel, nil
}

// RetrieveRelation returns the principal's relation to the book. When none is
// stored yet, the unsaved default relation is returned.
func (svc *Service) RetrieveRelation(ctx context.Context, principal models.Principal, bookID int) (*models.UserBookRelation, error) {
	if !principal.IsAuthenticated() {
		return nil, errcodes.NotAuthenticated()
	}
	if err := ensureBook(ctx, svc.db, bookID); err != nil {
		return nil, err
	}

	rel, err := findRelation(ctx, svc.db, *principal.UserID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.UserBookRelation{UserID: *principal.UserID, BookID: bookID}, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return rel, nil
}

// ListRelations returns every relation stored for the principal.
func (svc *Service) ListRelations(ctx context.Context, principal models.Principal) ([]*models.UserBookRelation, error) {
	if !principal.IsAuthenticated() {
		return nil, errcodes.NotAuthenticated()
	}

	rels := []*models.UserBookRelation{}
	err := svc.db.
		NewSelect().
		Model(&rels).
		Where("ubr.user_id = ?", *principal.UserID).
		Order("ubr.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return rels, nil
}

func ensureBook(ctx context.Context, db bun.IDB, bookID int) error {
	exists, err := db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("b.id = ?", bookID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.NotFound("Book")
	}
	return nil
}

func findRelation(ctx context.Context, db bun.IDB, userID, bookID int) (*models.UserBookRelation, error) {
	rel := &models.UserBookRelation{}
	err := db.
		NewSelect().
		Model(rel).
		Where("ubr.user_id = ?", userID).
		Where("ubr.book_id = ?", bookID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rel, nil
}

func getOrCreate(ctx context.Context, db bun.IDB, userID, bookID int) (*models.UserBookRelation, error) {
	rel, err := findRelation(ctx, db, userID, bookID)
	if err == nil {
		return rel, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}
	return insertOrFetch(ctx, db, userID, bookID)
}

// insertOrFetch inserts a fresh relation. If another request created the row
// first, the existing row is returned instead.
func insertOrFetch(ctx context.Context, db bun.IDB, userID, bookID int) (*models.UserBookRelation, error) {
	now := time.Now()
	rel := &models.UserBookRelation{
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    userID,
		BookID:    bookID,
	}
	_, err := db.NewInsert().Model(rel).Exec(ctx)
	if err == nil {
		return rel, nil
	}
	if !database.IsUniqueConstraintError(err) {
		return nil, errors.WithStack(err)
	}

	logger.FromContext(ctx).Warn("relation created concurrently, reusing existing row", logger.Data{
		"user_id": userID,
		"book_id": bookID,
	})
	rel, err = findRelation(ctx, db, userID, bookID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return rel, nil
}
