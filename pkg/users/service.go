package users

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/bookstore-app/store/pkg/auth"
	"github.com/bookstore-app/store/pkg/database"
	"github.com/bookstore-app/store/pkg/errcodes"
	"github.com/bookstore-app/store/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Service handles user operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new users service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

type CreateUserOptions struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
	IsStaff   bool
}

// Create creates a new active user. Usernames are unique regardless of case.
func (s *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	exists, err := s.usernameTaken(ctx, opts.Username, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errcodes.FieldValidationError("username", "A user with that username already exists.")
	}

	hashedPassword, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     opts.Username,
		FirstName:    opts.FirstName,
		LastName:     opts.LastName,
		Email:        opts.Email,
		PasswordHash: hashedPassword,
		IsStaff:      opts.IsStaff,
		IsActive:     true,
	}

	_, err = s.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		if database.IsUniqueConstraintError(err) {
			return nil, errcodes.FieldValidationError("username", "A user with that username already exists.")
		}
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// Retrieve gets a user by ID, active or not.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

type ListOptions struct {
	Limit  int
	Offset int
	Search *string
}

// List returns a page of users and the total number of matches.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.User, int, error) {
	users := []*models.User{}

	query := s.db.NewSelect().
		Model(&users).
		Order("u.id ASC")

	if opts.Search != nil && *opts.Search != "" {
		term := "%" + strings.ToLower(*opts.Search) + "%"
		query = query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(u.username) LIKE ?", term).
				WhereOr("LOWER(u.first_name) LIKE ?", term).
				WhereOr("LOWER(u.last_name) LIKE ?", term).
				WhereOr("LOWER(u.email) LIKE ?", term)
		})
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return users, total, nil
}

type UpdateOptions struct {
	Columns []string
}

// Update persists the given columns of user.
func (s *Service) Update(ctx context.Context, user *models.User, opts UpdateOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	for _, col := range opts.Columns {
		if col != "username" {
			continue
		}
		exists, err := s.usernameTaken(ctx, user.Username, user.ID)
		if err != nil {
			return err
		}
		if exists {
			return errcodes.FieldValidationError("username", "A user with that username already exists.")
		}
	}

	user.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if database.IsUniqueConstraintError(err) {
			return errcodes.FieldValidationError("username", "A user with that username already exists.")
		}
		return errors.WithStack(err)
	}
	return nil
}

// ResetPassword replaces a user's password.
func (s *Service) ResetPassword(ctx context.Context, userID int, newPassword string) error {
	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hashedPassword).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// VerifyPassword checks if the password is correct for a user.
func (s *Service) VerifyPassword(ctx context.Context, userID int, password string) (bool, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Column("password_hash").
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return auth.CheckPassword(password, user.PasswordHash), nil
}

// Deactivate marks a user inactive. Their books and relations are kept.
func (s *Service) Deactivate(ctx context.Context, userID int) error {
	res, err := s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("User")
	}
	return nil
}

func (s *Service) usernameTaken(ctx context.Context, username string, excludeID int) (bool, error) {
	query := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("username = ? COLLATE NOCASE", username)
	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}
	exists, err := query.Exists(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}
