package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

func newDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBringUpToDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newDB(t)

	group, err := BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.False(t, group.IsZero())

	for _, table := range []string{"users", "books", "user_book_relations"} {
		var count int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}

	group, err = BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.True(t, group.IsZero())
}

func TestRelationConstraints(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newDB(t)
	_, err := BringUpToDate(ctx, db)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO users (username, password_hash) VALUES ('alice', 'x')")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO users (username, password_hash) VALUES ('ALICE', 'x')")
	require.Error(t, err, "usernames are unique regardless of case")

	_, err = db.ExecContext(ctx, "INSERT INTO books (name, price) VALUES ('First', 2500)")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO user_book_relations (user_id, book_id, rate) VALUES (1, 1, 6)")
	require.Error(t, err, "rate above 5 violates the check constraint")

	_, err = db.ExecContext(ctx, "INSERT INTO user_book_relations (user_id, book_id, rate) VALUES (1, 1, 5)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO user_book_relations (user_id, book_id) VALUES (1, 1)")
	require.Error(t, err, "one relation per user and book")
}

func TestRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newDB(t)
	_, err := BringUpToDate(ctx, db)
	require.NoError(t, err)

	migrator := migrate.NewMigrator(db, Migrations)
	group, err := migrator.Rollback(ctx)
	require.NoError(t, err)
	assert.False(t, group.IsZero())

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'books'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
